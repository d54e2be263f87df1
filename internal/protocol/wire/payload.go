package wire

import (
	"encoding/binary"
	"fmt"
	"time"
)

// minRecordSize is the encoded size of a FileRecord with an empty filename.
const minRecordSize = 4 + 8 + 8

// FileRecord describes one stored file in a listing.
type FileRecord struct {
	Filename string
	Size     uint64
	// ModTime is the modification time in Unix epoch seconds.
	ModTime uint64
}

// ModifiedAt returns ModTime as a time.Time.
func (f FileRecord) ModifiedAt() time.Time {
	return time.Unix(int64(f.ModTime), 0)
}

// StatusPayload is the body of Error-Response, Delete-Response,
// Download-Complete and the upload acknowledgement.
type StatusPayload struct {
	Code    Status
	Message string
}

// UploadRequest is the body of an Upload-Request.
type UploadRequest struct {
	Filename string
	Size     uint64
}

// EncodeString returns s as a length-prefixed string.
func EncodeString(s string) []byte {
	w := NewWriter(4 + len(s))
	w.WriteString(s)
	return w.Bytes()
}

// DecodeString decodes a length-prefixed string from the start of b and
// returns it with the number of bytes consumed.
func DecodeString(b []byte) (string, int, error) {
	r := NewReader(b)
	s := r.ReadString()
	if err := r.Err(); err != nil {
		return "", 0, err
	}
	return s, r.Position(), nil
}

// EncodeUint64 returns v as 8 big-endian bytes.
func EncodeUint64(v uint64) []byte {
	return binary.BigEndian.AppendUint64(make([]byte, 0, 8), v)
}

// DecodeUint64 decodes a big-endian uint64 from the start of b.
func DecodeUint64(b []byte) (uint64, error) {
	if len(b) < 8 {
		return 0, fmt.Errorf("%w: need 8 bytes, have %d", ErrTruncatedPayload, len(b))
	}
	return binary.BigEndian.Uint64(b), nil
}

func (w *Writer) writeFileRecord(f FileRecord) {
	w.WriteString(f.Filename)
	w.WriteUint64(f.Size)
	w.WriteUint64(f.ModTime)
}

func (r *Reader) readFileRecord() FileRecord {
	return FileRecord{
		Filename: r.ReadString(),
		Size:     r.ReadUint64(),
		ModTime:  r.ReadUint64(),
	}
}

// EncodeFileRecord returns the wire form of a single record.
func EncodeFileRecord(f FileRecord) []byte {
	w := NewWriter(minRecordSize + len(f.Filename))
	w.writeFileRecord(f)
	return w.Bytes()
}

// DecodeFileRecord decodes one record from the start of b and returns it with
// the number of bytes consumed.
func DecodeFileRecord(b []byte) (FileRecord, int, error) {
	r := NewReader(b)
	f := r.readFileRecord()
	if err := r.Err(); err != nil {
		return FileRecord{}, 0, err
	}
	return f, r.Position(), nil
}

// EncodeListing returns a List-Response payload.
func EncodeListing(files []FileRecord) []byte {
	size := 4
	for _, f := range files {
		size += minRecordSize + len(f.Filename)
	}
	w := NewWriter(size)
	w.WriteUint32(uint32(len(files)))
	for _, f := range files {
		w.writeFileRecord(f)
	}
	return w.Bytes()
}

// DecodeListing decodes a List-Response payload.
func DecodeListing(b []byte) ([]FileRecord, error) {
	r := NewReader(b)
	count := r.ReadUint32()
	if err := r.Err(); err != nil {
		return nil, err
	}
	if uint64(count)*minRecordSize > uint64(r.Remaining()) {
		return nil, fmt.Errorf("%w: listing declares %d records in %d bytes",
			ErrTruncatedPayload, count, r.Remaining())
	}

	files := make([]FileRecord, 0, count)
	for range count {
		files = append(files, r.readFileRecord())
	}
	if err := r.Err(); err != nil {
		return nil, err
	}
	return files, nil
}

// EncodeStatus returns a status payload. An empty message is omitted.
func EncodeStatus(code Status, message string) []byte {
	w := NewWriter(1 + 4 + len(message))
	w.WriteUint8(uint8(code))
	if message != "" {
		w.WriteString(message)
	}
	return w.Bytes()
}

// DecodeStatus decodes a status payload.
func DecodeStatus(b []byte) (StatusPayload, error) {
	r := NewReader(b)
	p := StatusPayload{Code: Status(r.ReadUint8())}
	if r.Err() == nil && r.Remaining() > 0 {
		p.Message = r.ReadString()
	}
	if err := r.Err(); err != nil {
		return StatusPayload{}, err
	}
	return p, nil
}

// EncodeUploadRequest returns an Upload-Request payload.
func EncodeUploadRequest(req UploadRequest) []byte {
	w := NewWriter(4 + len(req.Filename) + 8)
	w.WriteString(req.Filename)
	w.WriteUint64(req.Size)
	return w.Bytes()
}

// DecodeUploadRequest decodes an Upload-Request payload.
func DecodeUploadRequest(b []byte) (UploadRequest, error) {
	r := NewReader(b)
	req := UploadRequest{
		Filename: r.ReadString(),
		Size:     r.ReadUint64(),
	}
	if err := r.Err(); err != nil {
		return UploadRequest{}, err
	}
	return req, nil
}
