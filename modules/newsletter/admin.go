package newsletter

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/dmitrymomot/newsletter/handler"
	"github.com/dmitrymomot/newsletter/svc/broadcast"
	"github.com/dmitrymomot/newsletter/svc/subscriber"
)

const msgInvalidAction = "Invalid action"

type listRequest struct {
	Action string `query:"action"`
	Page   int    `query:"page"`
	Limit  int    `query:"limit"`
}

type importRequest struct {
	CSV  string                `form:"csv" json:"csv"`
	File *multipart.FileHeader `file:"file"`
}

type newsletterRequest struct {
	Subject string `form:"subject" json:"subject"`
	Content string `form:"content" json:"content"`
	Format  string `form:"format" json:"format"`
}

func data(fields handler.Fields) handler.Response {
	fields["success"] = true
	return handler.JSON(http.StatusOK, fields)
}

// listSubscribers answers ?action=count|list|stats for the admin UI.
func (m *module) listSubscribers(ctx handler.Context, req listRequest) handler.Response {
	svc := m.deps.Subscribers
	switch req.Action {
	case "count":
		n, err := svc.Count(ctx)
		if err != nil {
			return m.fail(ctx, httpError(err, subscriber.MsgListFailed))
		}
		return data(handler.Fields{"count": n})
	case "list":
		page, err := svc.List(ctx, req.Page, req.Limit)
		if err != nil {
			return m.fail(ctx, httpError(err, subscriber.MsgListFailed))
		}
		return data(handler.Fields{"subscribers": page.Subscribers, "pagination": page.Pagination})
	case "stats":
		st, err := svc.Stats(ctx)
		if err != nil {
			return m.fail(ctx, httpError(err, subscriber.MsgListFailed))
		}
		return data(handler.Fields{"stats": st})
	default:
		return handler.Fail(http.StatusBadRequest, msgInvalidAction)
	}
}

// maskedSubscribers is the preview listing with masked addresses.
func (m *module) maskedSubscribers(ctx handler.Context, req listRequest) handler.Response {
	svc := m.deps.Subscribers
	switch req.Action {
	case "count":
		n, err := svc.Count(ctx)
		if err != nil {
			return m.fail(ctx, httpError(err, subscriber.MsgListFailed))
		}
		return data(handler.Fields{"count": n})
	case "list":
		page, err := svc.ListMasked(ctx, req.Page, req.Limit)
		if err != nil {
			return m.fail(ctx, httpError(err, subscriber.MsgListFailed))
		}
		return data(handler.Fields{"subscribers": page.Subscribers, "pagination": page.Pagination})
	default:
		return handler.Fail(http.StatusBadRequest, msgInvalidAction)
	}
}

func (m *module) bulkImport(ctx handler.Context, req importRequest) handler.Response {
	csv, err := importSource(req)
	if err != nil {
		return m.fail(ctx, httpError(err, subscriber.MsgBulkUploadFailed))
	}
	if csv == nil {
		return handler.Fail(http.StatusBadRequest, subscriber.MsgCSVRequired)
	}
	defer csv.Close()

	r := ctx.Request()
	res, err := m.deps.Subscribers.BulkImport(ctx, subscriber.ImportInput{
		CSV:       csv,
		IP:        m.clientIP(r),
		UserAgent: r.UserAgent(),
	})
	if err != nil {
		return m.fail(ctx, httpError(err, subscriber.MsgBulkUploadFailed))
	}
	return data(handler.Fields{"results": res})
}

// importSource prefers an uploaded file over the csv text field. It returns
// nil when neither carries data.
func importSource(req importRequest) (io.ReadCloser, error) {
	if req.File != nil {
		f, err := req.File.Open()
		if err != nil {
			return nil, fmt.Errorf("open uploaded csv: %w", err)
		}
		return f, nil
	}
	if strings.TrimSpace(req.CSV) == "" {
		return nil, nil
	}
	return io.NopCloser(strings.NewReader(req.CSV)), nil
}

func (m *module) forceUnsubscribe(ctx handler.Context, req emailRequest) handler.Response {
	if err := m.deps.Subscribers.ForceUnsubscribe(ctx, req.Email); err != nil {
		return m.fail(ctx, httpError(err, subscriber.MsgForceUnsubscribeErr))
	}
	return handler.OK(subscriber.MsgForceUnsubscribed, nil)
}

func (m *module) sendNewsletter(ctx handler.Context, req newsletterRequest) handler.Response {
	format, err := broadcast.ParseFormat(req.Format)
	if err != nil {
		return handler.Fail(http.StatusBadRequest, broadcast.MsgInvalidFormat)
	}

	started, err := m.deps.Broadcasts.Broadcast(ctx, broadcast.Newsletter{
		Subject: req.Subject,
		Content: req.Content,
		Format:  format,
	})
	if err != nil {
		return m.fail(ctx, httpError(err, broadcast.MsgFailed))
	}
	return handler.OK(broadcast.StartedMessage(started.Total), handler.Fields{"total": started.Total})
}
