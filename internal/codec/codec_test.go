package codec_test

import (
	"bytes"
	"io"
	"testing"

	"github.com/iamNilotpal/kvs/internal/codec"
	"github.com/stretchr/testify/require"
)

func TestCommandRoundTrip(t *testing.T) {
	cases := []codec.Command{
		codec.NewSetCommand("k1", "v1"),
		codec.NewSetCommand("", ""),
		codec.NewRemoveCommand("k1"),
		codec.NewSetCommand("k", string(make([]byte, 4096))),
	}

	for _, want := range cases {
		var buf bytes.Buffer
		n, err := codec.EncodeCommand(&buf, want)
		require.NoError(t, err)
		require.Equal(t, want.EncodedLen(), n)
		require.Equal(t, n, buf.Len())

		got, err := codec.DecodeCommand(&buf)
		require.NoError(t, err)
		require.Equal(t, want, got)
		require.Equal(t, 0, buf.Len(), "decode must consume exactly the encoded bytes")
	}
}

func TestDecodeCommandCleanEOF(t *testing.T) {
	_, err := codec.DecodeCommand(bytes.NewReader(nil))
	require.ErrorIs(t, err, io.EOF)
}

func TestDecodeCommandTruncatedMidRecord(t *testing.T) {
	var buf bytes.Buffer
	_, err := codec.EncodeCommand(&buf, codec.NewSetCommand("key", "value"))
	require.NoError(t, err)

	truncated := buf.Bytes()[:buf.Len()-2]
	_, err = codec.DecodeCommand(bytes.NewReader(truncated))
	require.Error(t, err)
	require.NotErrorIs(t, err, io.EOF)
}

func TestCommandStreamDecodesOneAtATime(t *testing.T) {
	var buf bytes.Buffer
	want := []codec.Command{
		codec.NewSetCommand("a", "1"),
		codec.NewSetCommand("b", "2"),
		codec.NewRemoveCommand("a"),
	}
	for _, c := range want {
		_, err := codec.EncodeCommand(&buf, c)
		require.NoError(t, err)
	}

	var got []codec.Command
	for {
		c, err := codec.DecodeCommand(&buf)
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		got = append(got, c)
	}
	require.Equal(t, want, got)
}

func TestRequestRoundTrip(t *testing.T) {
	cases := []codec.Request{
		{Tag: codec.ReqGet, Key: "foo"},
		{Tag: codec.ReqSet, Key: "foo", Value: "bar"},
		{Tag: codec.ReqRemove, Key: "foo"},
	}
	for _, want := range cases {
		var buf bytes.Buffer
		require.NoError(t, codec.EncodeRequest(&buf, want))
		got, err := codec.DecodeRequest(&buf)
		require.NoError(t, err)
		require.Equal(t, want, got)
	}
}

func TestResponseRoundTrip(t *testing.T) {
	cases := []codec.Response{
		codec.GetOkResponse("bar", true),
		codec.GetOkResponse("", false),
		codec.SetOkResponse(),
		codec.RemoveOkResponse(),
		codec.ErrResponse("Key not found"),
	}
	for _, want := range cases {
		var buf bytes.Buffer
		require.NoError(t, codec.EncodeResponse(&buf, want))
		got, err := codec.DecodeResponse(&buf)
		require.NoError(t, err)
		require.Equal(t, want, got)
	}
}
