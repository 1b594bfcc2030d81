package newsletter

import (
	"github.com/dmitrymomot/newsletter/handler"
	"github.com/dmitrymomot/newsletter/svc/subscriber"
)

type emailRequest struct {
	Email string `form:"email" json:"email"`
}

type tokenRequest struct {
	Token string `form:"token" json:"token"`
}

func (m *module) subscribe(ctx handler.Context, req emailRequest) handler.Response {
	r := ctx.Request()
	res, err := m.deps.Subscribers.Subscribe(ctx, subscriber.SubscribeInput{
		Email:     req.Email,
		IP:        m.clientIP(r),
		UserAgent: r.UserAgent(),
	})
	if err != nil {
		return m.fail(ctx, httpError(err, subscriber.MsgSubscriptionFailed))
	}
	return handler.OK(res.Message, handler.Fields{"email": res.Email})
}

func (m *module) confirm(ctx handler.Context, req tokenRequest) handler.Response {
	res, err := m.deps.Subscribers.Confirm(ctx, req.Token)
	if err != nil {
		return m.fail(ctx, httpError(err, subscriber.MsgConfirmFailed))
	}
	return handler.OK(res.Message, handler.Fields{"email": res.Email})
}

func (m *module) resendConfirmation(ctx handler.Context, req emailRequest) handler.Response {
	res, err := m.deps.Subscribers.ResendConfirmation(ctx, req.Email)
	if err != nil {
		return m.fail(ctx, httpError(err, subscriber.MsgResendFailed))
	}
	return handler.OK(res.Message, nil)
}

// unsubscribe serves both the link in emails (GET) and one-click
// unsubscribe (POST, token in the query or the body).
func (m *module) unsubscribe(ctx handler.Context, req tokenRequest) handler.Response {
	res, err := m.deps.Subscribers.Unsubscribe(ctx, req.Token)
	if err != nil {
		return m.fail(ctx, httpError(err, subscriber.MsgUnsubscribeFailed))
	}
	return handler.OK(res.Message, handler.Fields{"email": res.Email})
}
