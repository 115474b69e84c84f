package gdsii

import (
	"bufio"
	"fmt"
	"io"
)

// recordReader reads length-tagged GDSII records one at a time from an
// io.Reader, so a caller never needs the whole stream resident beyond a
// single record's payload.
type recordReader struct {
	r      *bufio.Reader
	offset int64
}

func newRecordReader(r io.Reader) *recordReader {
	return &recordReader{r: bufio.NewReaderSize(r, 64*1024)}
}

// next reads the next record, or io.EOF when the stream is exhausted
// cleanly at a record boundary.
func (rr *recordReader) next() (record, error) {
	var header [4]byte
	n, err := io.ReadFull(rr.r, header[:])
	if err == io.EOF && n == 0 {
		return record{}, io.EOF
	}
	if err != nil {
		return record{}, fmt.Errorf("reading record header at offset %d: %w", rr.offset, err)
	}

	length := int(header[0])<<8 | int(header[1])
	if length < 4 {
		return record{}, fmt.Errorf("invalid record length %d at offset %d", length, rr.offset)
	}

	payloadLen := length - 4
	data := make([]byte, payloadLen)
	if payloadLen > 0 {
		if _, err := io.ReadFull(rr.r, data); err != nil {
			return record{}, fmt.Errorf("reading record payload at offset %d: %w", rr.offset, err)
		}
	}

	rec := record{
		typ:     header[2],
		dataTyp: header[3],
		data:    data,
		offset:  rr.offset,
	}
	rr.offset += int64(length)
	return rec, nil
}

func (rec record) asInt16s() []int16 {
	out := make([]int16, 0, len(rec.data)/2)
	for i := 0; i+1 < len(rec.data); i += 2 {
		out = append(out, decodeInt16(rec.data[i:i+2]))
	}
	return out
}

func (rec record) asInt32s() []int32 {
	out := make([]int32, 0, len(rec.data)/4)
	for i := 0; i+3 < len(rec.data); i += 4 {
		out = append(out, decodeInt32(rec.data[i:i+4]))
	}
	return out
}

func (rec record) asReal8s() []float64 {
	out := make([]float64, 0, len(rec.data)/8)
	for i := 0; i+7 < len(rec.data); i += 8 {
		out = append(out, decodeReal8(rec.data[i:i+8]))
	}
	return out
}

func (rec record) asString() string {
	s := string(rec.data)
	// GDSII ASCII fields are padded to an even length with a trailing NUL.
	for len(s) > 0 && s[len(s)-1] == 0 {
		s = s[:len(s)-1]
	}
	return s
}
