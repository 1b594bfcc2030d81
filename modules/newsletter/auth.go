package newsletter

import (
	"github.com/dmitrymomot/newsletter/handler"
	"github.com/dmitrymomot/newsletter/svc/adminauth"
)

type loginRequest struct {
	Password string `form:"password" json:"password"`
}

func (m *module) login(ctx handler.Context, req loginRequest) handler.Response {
	r := ctx.Request()
	sess, err := m.deps.Auth.Login(ctx, adminauth.LoginInput{
		Password:  req.Password,
		IP:        m.clientIP(r),
		UserAgent: r.UserAgent(),
	})
	if err != nil {
		return m.fail(ctx, authError(err))
	}
	m.deps.Auth.SetCookie(ctx.ResponseWriter(), sess.Token)
	return handler.OK(adminauth.MsgLoggedIn, nil)
}

// logout always clears the cookie, even when the stored session is gone.
func (m *module) logout(ctx handler.Context, _ struct{}) handler.Response {
	err := m.deps.Auth.Logout(ctx, adminauth.TokenFromRequest(ctx.Request()))
	m.deps.Auth.ClearCookie(ctx.ResponseWriter())
	if err != nil {
		return m.fail(ctx, httpError(err, adminauth.MsgLogoutFailed))
	}
	return handler.OK(adminauth.MsgLoggedOut, nil)
}
