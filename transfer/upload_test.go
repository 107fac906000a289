package transfer

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envelopeHandler(status int, body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}
}

func TestUploadSuccessSendsSingleMultipartField(t *testing.T) {
	var gotName, gotBody, gotField string
	var fieldCount int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		reader, err := r.MultipartReader()
		if !assert.NoError(t, err) {
			return
		}
		for {
			part, err := reader.NextPart()
			if err == io.EOF {
				break
			}
			if !assert.NoError(t, err) {
				return
			}
			fieldCount++
			gotField = part.FormName()
			gotName = part.FileName()
			data, _ := io.ReadAll(part)
			gotBody = string(data)
		}
		envelopeHandler(http.StatusOK, `{"data":{"message":"Success"}}`)(w, r)
	}))
	defer srv.Close()

	client := NewClient(srv.URL + "/file")
	res := client.Upload(NewToken(), FileFromBytes("a.txt", []byte("hello intake")))

	require.True(t, res.OK(), "unexpected result: %+v", res)
	assert.Equal(t, Success, res.Outcome)
	assert.Equal(t, "Success", res.Message)
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, 1, fieldCount)
	assert.Equal(t, "file", gotField)
	assert.Equal(t, "a.txt", gotName)
	assert.Equal(t, "hello intake", gotBody)
}

func TestUploadCustomFieldName(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, header, err := r.FormFile("document")
		if err != nil {
			envelopeHandler(http.StatusInternalServerError, `{"data":{"message":"Internal Server Error"}}`)(w, r)
			return
		}
		assert.Equal(t, "b.bin", header.Filename)
		envelopeHandler(http.StatusOK, `{"data":{"message":"Success"}}`)(w, r)
	}))
	defer srv.Close()

	res := NewClient(srv.URL, WithFieldName("document")).Upload(NewToken(), FileFromBytes("b.bin", []byte{1, 2, 3}))
	assert.Equal(t, Success, res.Outcome)
}

func TestUploadServerErrorMessageIsVerbatim(t *testing.T) {
	srv := httptest.NewServer(envelopeHandler(http.StatusInternalServerError, `{"data":{"message":"disk full"}}`))
	defer srv.Close()

	res := NewClient(srv.URL).Upload(NewToken(), FileFromBytes("a.txt", []byte("x")))

	assert.Equal(t, ServerError, res.Outcome)
	assert.Equal(t, "disk full", res.Message)
	assert.Equal(t, "disk full", res.Error())
	assert.Equal(t, http.StatusInternalServerError, res.StatusCode)
}

func TestUploadServerErrorWithoutEnvelopeUsesStatus(t *testing.T) {
	srv := httptest.NewServer(envelopeHandler(http.StatusBadGateway, "<html>bad gateway</html>"))
	defer srv.Close()

	res := NewClient(srv.URL).Upload(NewToken(), FileFromBytes("a.txt", []byte("x")))

	assert.Equal(t, ServerError, res.Outcome)
	assert.Equal(t, "502 Bad Gateway", res.Message)
}

func TestUploadInvalidAcknowledgement(t *testing.T) {
	srv := httptest.NewServer(envelopeHandler(http.StatusOK, "not json"))
	defer srv.Close()

	res := NewClient(srv.URL).Upload(NewToken(), FileFromBytes("a.txt", []byte("x")))

	assert.Equal(t, ServerError, res.Outcome)
	assert.Equal(t, "invalid acknowledgement", res.Message)
}

func TestUploadSignaledTokenSkipsNetwork(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		envelopeHandler(http.StatusOK, `{"data":{"message":"Success"}}`)(w, r)
	}))
	defer srv.Close()

	token := NewToken()
	token.Signal()
	res := NewClient(srv.URL).Upload(token, FileFromBytes("a.txt", []byte("x")))

	assert.Equal(t, Cancelled, res.Outcome)
	assert.True(t, errors.Is(res, ErrCancelled))
	assert.Equal(t, int32(0), hits.Load())
}

func TestUploadSignalDuringFlightAborts(t *testing.T) {
	arrived := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.ReadAll(r.Body)
		close(arrived)
		select {
		case <-r.Context().Done():
		case <-time.After(5 * time.Second):
		}
	}))
	defer srv.Close()

	token := NewToken()
	done := make(chan Result, 1)
	go func() {
		done <- NewClient(srv.URL).Upload(token, FileFromBytes("a.txt", []byte("x")))
	}()

	<-arrived
	token.Signal()

	select {
	case res := <-done:
		assert.Equal(t, Cancelled, res.Outcome)
	case <-time.After(3 * time.Second):
		t.Fatal("upload did not abort after the token was signaled")
	}
}

func TestUploadTransportError(t *testing.T) {
	srv := httptest.NewServer(envelopeHandler(http.StatusOK, `{"data":{"message":"Success"}}`))
	url := srv.URL
	srv.Close()

	res := NewClient(url).Upload(NewToken(), FileFromBytes("a.txt", []byte("x")))

	assert.Equal(t, TransportError, res.Outcome)
	assert.Equal(t, TransportErrorMessage, res.Message)
	assert.Error(t, res.Err)
}

func TestUploadUnreadableFile(t *testing.T) {
	res := NewClient("http://127.0.0.1:1").Upload(NewToken(), File{Name: "ghost"})
	assert.Equal(t, TransportError, res.Outcome)
	assert.Equal(t, TransportErrorMessage, res.Message)
	assert.ErrorContains(t, res.Err, "ghost")
}

func TestOutcomeString(t *testing.T) {
	assert.Equal(t, "success", Success.String())
	assert.Equal(t, "server_error", ServerError.String())
	assert.Equal(t, "cancelled", Cancelled.String())
	assert.Equal(t, "transport_error", TransportError.String())
}
