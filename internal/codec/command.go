// Package codec implements the self-delimiting binary record framing shared
// by the on-disk command log and the wire protocol: a fixed-width header
// followed by the raw key (and, for Set, value) bytes. Command and Request
// records share the same 9-byte header shape; Response records use their own
// 6-byte header (tag, found flag, payload length) followed by the payload.
// Every record is self-delimiting, so a stream of concatenated records can
// always be decoded one at a time, and the byte
// length of each record is recoverable from the reader position before and
// after a decode.
package codec

import (
	"encoding/binary"
	"io"

	kvserrors "github.com/iamNilotpal/kvs/pkg/errors"
)

// CommandTag distinguishes the two Command variants in the header byte.
type CommandTag byte

const (
	// TagSet marks a record that installs a key/value mapping.
	TagSet CommandTag = 0
	// TagRemove marks a record that deletes a mapping.
	TagRemove CommandTag = 1
)

// commandHeaderSize is tag(1) + keyLen(4) + valueLen(4).
const commandHeaderSize = 1 + 4 + 4

// Command is the tagged record appended to the log: either a Set(key,
// value) installing a mapping or a Remove(key) deleting one.
type Command struct {
	Tag   CommandTag
	Key   string
	Value string // empty and meaningless for Remove
}

// NewSetCommand builds a Set command for key/value.
func NewSetCommand(key, value string) Command {
	return Command{Tag: TagSet, Key: key, Value: value}
}

// NewRemoveCommand builds a Remove command for key.
func NewRemoveCommand(key string) Command {
	return Command{Tag: TagRemove, Key: key}
}

// IsSet reports whether the command is a Set.
func (c Command) IsSet() bool { return c.Tag == TagSet }

// EncodedLen returns the exact number of bytes EncodeCommand will write.
func (c Command) EncodedLen() int {
	if c.Tag == TagRemove {
		return commandHeaderSize + len(c.Key)
	}
	return commandHeaderSize + len(c.Key) + len(c.Value)
}

// EncodeCommand writes the self-delimiting encoding of cmd to w. Encoding
// then decoding the same command yields an equal command.
func EncodeCommand(w io.Writer, cmd Command) (int, error) {
	valueLen := 0
	if cmd.Tag == TagSet {
		valueLen = len(cmd.Value)
	}

	header := make([]byte, commandHeaderSize)
	header[0] = byte(cmd.Tag)
	binary.LittleEndian.PutUint32(header[1:5], uint32(len(cmd.Key)))
	binary.LittleEndian.PutUint32(header[5:9], uint32(valueLen))

	n, err := w.Write(header)
	if err != nil {
		return n, kvserrors.NewEngineError(err, kvserrors.ErrorCodeEncode, "failed to write command header").
			WithOperation("EncodeCommand")
	}

	kn, err := io.WriteString(w, cmd.Key)
	n += kn
	if err != nil {
		return n, kvserrors.NewEngineError(err, kvserrors.ErrorCodeEncode, "failed to write command key").
			WithKey(cmd.Key).WithOperation("EncodeCommand")
	}

	if cmd.Tag == TagSet {
		vn, err := io.WriteString(w, cmd.Value)
		n += vn
		if err != nil {
			return n, kvserrors.NewEngineError(err, kvserrors.ErrorCodeEncode, "failed to write command value").
				WithKey(cmd.Key).WithOperation("EncodeCommand")
		}
	}

	return n, nil
}

// DecodeCommand reads one self-delimiting Command from r.
//
// A clean end-of-stream at a record boundary (zero bytes read before the
// header) is reported as io.EOF, which is not an error condition during
// replay. A truncation partway through a record is reported as a
// *kvserrors.EngineError with ErrorCodeDecode.
func DecodeCommand(r io.Reader) (Command, error) {
	header := make([]byte, commandHeaderSize)
	if _, err := io.ReadFull(r, header); err != nil {
		if err == io.EOF {
			return Command{}, io.EOF
		}
		return Command{}, kvserrors.NewEngineError(err, kvserrors.ErrorCodeDecode, "truncated command header").
			WithOperation("DecodeCommand")
	}

	tag := CommandTag(header[0])
	keyLen := binary.LittleEndian.Uint32(header[1:5])
	valueLen := binary.LittleEndian.Uint32(header[5:9])

	key := make([]byte, keyLen)
	if _, err := io.ReadFull(r, key); err != nil {
		return Command{}, kvserrors.NewEngineError(err, kvserrors.ErrorCodeDecode, "truncated command key").
			WithOperation("DecodeCommand")
	}

	cmd := Command{Tag: tag, Key: string(key)}
	if tag == TagSet {
		value := make([]byte, valueLen)
		if _, err := io.ReadFull(r, value); err != nil {
			return Command{}, kvserrors.NewEngineError(err, kvserrors.ErrorCodeDecode, "truncated command value").
				WithKey(cmd.Key).WithOperation("DecodeCommand")
		}
		cmd.Value = string(value)
	}

	return cmd, nil
}
