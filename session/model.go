// Package session persists session entries for revocation bookkeeping
// and mints the signed credentials tied to them. Entries are an audit
// trail: revocation marks them inactive, it never deletes them.
package session

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
)

const entryRecordVersion1 = 1

// Entry is one issued session. Only the credential's hash is stored;
// the signed token itself never touches the store.
type Entry struct {
	SessionID string
	UserID    string
	TokenHash [32]byte
	IP        string
	UserAgent string
	Active    bool
	CreatedAt int64 // unix seconds
	ExpiresAt int64 // unix seconds
}

// Encode serializes an entry as a versioned binary record.
func Encode(e *Entry) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteByte(entryRecordVersion1)
	if e.Active {
		buf.WriteByte(1)
	} else {
		buf.WriteByte(0)
	}

	if err := binary.Write(&buf, binary.BigEndian, e.CreatedAt); err != nil {
		return nil, err
	}
	if err := binary.Write(&buf, binary.BigEndian, e.ExpiresAt); err != nil {
		return nil, err
	}
	buf.Write(e.TokenHash[:])

	for _, field := range []string{e.UserID, e.IP, e.UserAgent} {
		if len(field) > 65535 {
			return nil, errors.New("session entry field too long")
		}
		if err := binary.Write(&buf, binary.BigEndian, uint16(len(field))); err != nil {
			return nil, err
		}
		buf.WriteString(field)
	}

	return buf.Bytes(), nil
}

// Decode parses a versioned binary record. SessionID is not part of the
// payload; the store fills it from the key.
func Decode(data []byte) (*Entry, error) {
	reader := bytes.NewReader(data)

	version, err := reader.ReadByte()
	if err != nil {
		return nil, err
	}
	if version != entryRecordVersion1 {
		return nil, errors.New("invalid session entry version")
	}

	active, err := reader.ReadByte()
	if err != nil {
		return nil, err
	}

	entry := &Entry{Active: active == 1}
	if err := binary.Read(reader, binary.BigEndian, &entry.CreatedAt); err != nil {
		return nil, err
	}
	if err := binary.Read(reader, binary.BigEndian, &entry.ExpiresAt); err != nil {
		return nil, err
	}
	if _, err := io.ReadFull(reader, entry.TokenHash[:]); err != nil {
		return nil, err
	}

	for _, target := range []*string{&entry.UserID, &entry.IP, &entry.UserAgent} {
		var length uint16
		if err := binary.Read(reader, binary.BigEndian, &length); err != nil {
			return nil, err
		}
		field := make([]byte, length)
		if _, err := io.ReadFull(reader, field); err != nil {
			return nil, err
		}
		*target = string(field)
	}

	return entry, nil
}
