package transfer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"

	"github.com/bytedance/sonic"

	"github.com/moyoez/batchupload/tool"
	"github.com/moyoez/batchupload/types"
)

// TransportErrorMessage is surfaced when no response was received.
const TransportErrorMessage = "Network error, please try again"

const DefaultFieldName = "file"

// maxEnvelopeBytes bounds how much of a response body is read for the envelope.
const maxEnvelopeBytes = 1 << 20

// Outcome classifies a single upload.
type Outcome int

const (
	Success Outcome = iota
	ServerError
	Cancelled
	TransportError
)

func (o Outcome) String() string {
	switch o {
	case Success:
		return "success"
	case ServerError:
		return "server_error"
	case Cancelled:
		return "cancelled"
	case TransportError:
		return "transport_error"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// Result is the classified outcome of one Client.Upload call.
// Message is the text meant for the user: the server message on Success
// and ServerError, a fixed text otherwise.
type Result struct {
	Outcome    Outcome
	Message    string
	StatusCode int
	Err        error
}

// Error makes a non-success Result usable as an error.
func (r Result) Error() string {
	return r.Message
}

func (r Result) Unwrap() error {
	return r.Err
}

func (r Result) OK() bool {
	return r.Outcome == Success
}

// Client performs single-file multipart uploads against the intake endpoint.
// It never retries.
type Client struct {
	endpoint   string
	fieldName  string
	httpClient *http.Client
}

type ClientOption func(*Client)

func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithFieldName overrides the multipart field name, "file" by default.
func WithFieldName(name string) ClientOption {
	return func(c *Client) {
		if name != "" {
			c.fieldName = name
		}
	}
}

func NewClient(endpoint string, opts ...ClientOption) *Client {
	c := &Client{
		endpoint:   endpoint,
		fieldName:  DefaultFieldName,
		httpClient: tool.NewHTTPClient(0),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) Endpoint() string {
	return c.endpoint
}

// Upload sends file as the sole field of a multipart POST.
// A token signaled before dispatch returns Cancelled without any network call;
// a signal during flight aborts the request.
func (c *Client) Upload(token *Token, file File) Result {
	if token == nil {
		token = NewToken()
	}
	if token.Signaled() {
		return cancelledResult(token.Context().Err())
	}
	ctx := token.Context()

	src, err := file.Open()
	if err != nil {
		tool.DefaultLogger.Warnf("[Intake] Failed to open %s: %v", file.Name, err)
		return Result{Outcome: TransportError, Message: TransportErrorMessage, Err: fmt.Errorf("failed to open %s: %w", file.Name, err)}
	}
	body, contentType := c.streamMultipart(ctx, file, src)
	defer body.Close()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, body)
	if err != nil {
		return Result{Outcome: TransportError, Message: TransportErrorMessage, Err: fmt.Errorf("failed to create upload request: %w", err)}
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if token.Signaled() || errors.Is(err, context.Canceled) {
			return cancelledResult(err)
		}
		tool.DefaultLogger.Warnf("[Intake] Failed to send %s: %v", file.Name, err)
		return Result{Outcome: TransportError, Message: TransportErrorMessage, Err: fmt.Errorf("failed to send upload request: %w", err)}
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			tool.DefaultLogger.Errorf("Failed to close response body: %v", err)
		}
	}()

	raw, readErr := io.ReadAll(io.LimitReader(resp.Body, maxEnvelopeBytes))
	if readErr != nil {
		if token.Signaled() {
			return cancelledResult(readErr)
		}
		return Result{Outcome: TransportError, Message: TransportErrorMessage, StatusCode: resp.StatusCode, Err: fmt.Errorf("failed to read response body: %w", readErr)}
	}
	return classifyResponse(resp, raw)
}

// classifyResponse maps a received response to Success or ServerError.
func classifyResponse(resp *http.Response, raw []byte) Result {
	var envelope types.Envelope
	decodeErr := sonic.Unmarshal(raw, &envelope)

	if resp.StatusCode >= http.StatusOK && resp.StatusCode < http.StatusMultipleChoices {
		if decodeErr != nil {
			return Result{
				Outcome:    ServerError,
				Message:    "invalid acknowledgement",
				StatusCode: resp.StatusCode,
				Err:        fmt.Errorf("failed to parse acknowledgement: %w", decodeErr),
			}
		}
		return Result{Outcome: Success, Message: envelope.Data.Message, StatusCode: resp.StatusCode}
	}

	message := envelope.Data.Message
	if decodeErr != nil || message == "" {
		message = strings.TrimSpace(resp.Status)
		if message == "" {
			message = http.StatusText(resp.StatusCode)
		}
	}
	return Result{
		Outcome:    ServerError,
		Message:    message,
		StatusCode: resp.StatusCode,
		Err:        fmt.Errorf("upload request failed: %s", resp.Status),
	}
}

func cancelledResult(err error) Result {
	if err == nil {
		err = context.Canceled
	}
	return Result{Outcome: Cancelled, Message: "Upload cancelled", Err: fmt.Errorf("%w: %v", ErrCancelled, err)}
}

// streamMultipart writes the multipart body on a goroutine so the file is never
// fully buffered. Closing the returned reader stops the writer.
func (c *Client) streamMultipart(ctx context.Context, file File, src io.ReadCloser) (io.ReadCloser, string) {
	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)

	go func() {
		defer src.Close()
		err := writeFilePart(ctx, mw, c.fieldName, file, src)
		if err == nil {
			err = mw.Close()
		}
		pw.CloseWithError(err)
	}()
	return pr, mw.FormDataContentType()
}

func writeFilePart(ctx context.Context, mw *multipart.Writer, fieldName string, file File, src io.Reader) error {
	fileType := file.FileType
	if fileType == "" {
		fileType = "application/octet-stream"
	}
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
		escapeQuotes(fieldName), escapeQuotes(file.Name)))
	header.Set("Content-Type", fileType)
	part, err := mw.CreatePart(header)
	if err != nil {
		return err
	}
	_, err = tool.CopyWithContext(ctx, part, src)
	return err
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}
