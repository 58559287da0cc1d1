package codec

import (
	"encoding/binary"
	"io"

	kvserrors "github.com/iamNilotpal/kvs/pkg/errors"
)

// RequestTag distinguishes the three Request variants.
type RequestTag byte

const (
	ReqGet    RequestTag = 0
	ReqSet    RequestTag = 1
	ReqRemove RequestTag = 2
)

// Request is one client request: Get(key), Set(key, value), or Remove(key).
// It shares the log's header-then-payload framing (spec: "Same record
// framing as the log").
type Request struct {
	Tag   RequestTag
	Key   string
	Value string // Set only
}

// EncodeRequest writes the self-delimiting encoding of req to w.
func EncodeRequest(w io.Writer, req Request) error {
	valueLen := 0
	if req.Tag == ReqSet {
		valueLen = len(req.Value)
	}

	header := make([]byte, commandHeaderSize)
	header[0] = byte(req.Tag)
	binary.LittleEndian.PutUint32(header[1:5], uint32(len(req.Key)))
	binary.LittleEndian.PutUint32(header[5:9], uint32(valueLen))

	if _, err := w.Write(header); err != nil {
		return kvserrors.NewEngineError(err, kvserrors.ErrorCodeEncode, "failed to write request header").
			WithOperation("EncodeRequest")
	}
	if _, err := io.WriteString(w, req.Key); err != nil {
		return kvserrors.NewEngineError(err, kvserrors.ErrorCodeEncode, "failed to write request key").
			WithOperation("EncodeRequest")
	}
	if req.Tag == ReqSet {
		if _, err := io.WriteString(w, req.Value); err != nil {
			return kvserrors.NewEngineError(err, kvserrors.ErrorCodeEncode, "failed to write request value").
				WithOperation("EncodeRequest")
		}
	}
	return nil
}

// DecodeRequest reads one Request from r. io.EOF at the start of the header
// means the peer closed the stream without sending a request.
func DecodeRequest(r io.Reader) (Request, error) {
	header := make([]byte, commandHeaderSize)
	if _, err := io.ReadFull(r, header); err != nil {
		if err == io.EOF {
			return Request{}, io.EOF
		}
		return Request{}, kvserrors.NewEngineError(err, kvserrors.ErrorCodeDecode, "truncated request header").
			WithOperation("DecodeRequest")
	}

	tag := RequestTag(header[0])
	keyLen := binary.LittleEndian.Uint32(header[1:5])
	valueLen := binary.LittleEndian.Uint32(header[5:9])

	key := make([]byte, keyLen)
	if _, err := io.ReadFull(r, key); err != nil {
		return Request{}, kvserrors.NewEngineError(err, kvserrors.ErrorCodeDecode, "truncated request key").
			WithOperation("DecodeRequest")
	}

	req := Request{Tag: tag, Key: string(key)}
	if tag == ReqSet {
		value := make([]byte, valueLen)
		if _, err := io.ReadFull(r, value); err != nil {
			return Request{}, kvserrors.NewEngineError(err, kvserrors.ErrorCodeDecode, "truncated request value").
				WithOperation("DecodeRequest")
		}
		req.Value = string(value)
	}

	return req, nil
}

// ResponseTag distinguishes the four Response variants.
type ResponseTag byte

const (
	RespGetOk    ResponseTag = 0
	RespSetOk    ResponseTag = 1
	RespRemoveOk ResponseTag = 2
	RespErr      ResponseTag = 3
)

// Response is the server's reply to exactly one Request.
//
// For RespGetOk, Found indicates whether Value is meaningful (spec's
// option<string>: absent means "no such key", not an empty string).
type Response struct {
	Tag     ResponseTag
	Value   string // GetOk payload
	Found   bool   // GetOk: whether a value was found
	Message string // Err payload
}

// GetOkResponse builds a found/not-found GetOk response.
func GetOkResponse(value string, found bool) Response {
	return Response{Tag: RespGetOk, Value: value, Found: found}
}

// SetOkResponse builds a SetOk response.
func SetOkResponse() Response { return Response{Tag: RespSetOk} }

// RemoveOkResponse builds a RemoveOk response.
func RemoveOkResponse() Response { return Response{Tag: RespRemoveOk} }

// ErrResponse builds an Err(message) response.
func ErrResponse(message string) Response {
	return Response{Tag: RespErr, Message: message}
}

// responseHeaderSize is tag(1) + found(1) + payloadLen(4).
const responseHeaderSize = 1 + 1 + 4

// EncodeResponse writes the self-delimiting encoding of resp to w.
func EncodeResponse(w io.Writer, resp Response) error {
	payload := resp.Value
	if resp.Tag == RespErr {
		payload = resp.Message
	}

	header := make([]byte, responseHeaderSize)
	header[0] = byte(resp.Tag)
	if resp.Found {
		header[1] = 1
	}
	binary.LittleEndian.PutUint32(header[2:6], uint32(len(payload)))

	if _, err := w.Write(header); err != nil {
		return kvserrors.NewEngineError(err, kvserrors.ErrorCodeEncode, "failed to write response header").
			WithOperation("EncodeResponse")
	}
	if _, err := io.WriteString(w, payload); err != nil {
		return kvserrors.NewEngineError(err, kvserrors.ErrorCodeEncode, "failed to write response payload").
			WithOperation("EncodeResponse")
	}
	return nil
}

// DecodeResponse reads one Response from r.
func DecodeResponse(r io.Reader) (Response, error) {
	header := make([]byte, responseHeaderSize)
	if _, err := io.ReadFull(r, header); err != nil {
		if err == io.EOF {
			return Response{}, io.EOF
		}
		return Response{}, kvserrors.NewEngineError(err, kvserrors.ErrorCodeDecode, "truncated response header").
			WithOperation("DecodeResponse")
	}

	tag := ResponseTag(header[0])
	found := header[1] == 1
	payloadLen := binary.LittleEndian.Uint32(header[2:6])

	payload := make([]byte, payloadLen)
	if _, err := io.ReadFull(r, payload); err != nil {
		return Response{}, kvserrors.NewEngineError(err, kvserrors.ErrorCodeDecode, "truncated response payload").
			WithOperation("DecodeResponse")
	}

	resp := Response{Tag: tag, Found: found}
	if tag == RespErr {
		resp.Message = string(payload)
	} else {
		resp.Value = string(payload)
	}
	return resp, nil
}
