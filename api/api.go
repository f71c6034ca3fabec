package api

import (
	"context"
	"net/http"

	"github.com/alexedwards/scs/v2"
	"github.com/gorilla/mux"
	"github.com/irsalhamdi/e-learning/api/middleware"
	"github.com/irsalhamdi/e-learning/api/web"
	"github.com/irsalhamdi/e-learning/core/auth"
	"github.com/irsalhamdi/e-learning/core/category"
	"github.com/irsalhamdi/e-learning/core/course"
	"github.com/irsalhamdi/e-learning/core/enrollment"
	"github.com/irsalhamdi/e-learning/core/order"
	"github.com/irsalhamdi/e-learning/core/progress"
	"github.com/irsalhamdi/e-learning/core/review"
	"github.com/irsalhamdi/e-learning/core/stats"
	"github.com/irsalhamdi/e-learning/core/user"
	"github.com/irsalhamdi/e-learning/rate"
	"github.com/irsalhamdi/e-learning/storage"
	"github.com/sirupsen/logrus"
)

type APIConfig struct {
	CorsOrigin   string
	Log          logrus.FieldLogger
	Store        storage.Storage
	Session      *scs.SessionManager
	LoginLimiter *rate.Limiter
}

type api struct {
	*mux.Router
	mw  []web.Middleware
	log logrus.FieldLogger
}

func APIMux(cfg APIConfig) http.Handler {
	a := &api{
		Router: mux.NewRouter(),
		log:    cfg.Log,
	}

	a.mw = append(a.mw, auth.LoadAndSave(cfg.Session))
	a.mw = append(a.mw, middleware.RequestID())
	a.mw = append(a.mw, middleware.Logger(cfg.Log))
	a.mw = append(a.mw, middleware.Errors(cfg.Log))
	a.mw = append(a.mw, middleware.Panics())

	if cfg.CorsOrigin != "" {
		a.mw = append(a.mw, middleware.Cors(cfg.CorsOrigin))

		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
			w.WriteHeader(http.StatusNoContent)
			return nil
		}

		a.Handle(http.MethodOptions, "/{path:.*}", h)
	}

	st := cfg.Store
	authen := auth.Authenticate(cfg.Session, st)
	admin := auth.Admin(cfg.Session, st)

	a.Handle(http.MethodPost, "/auth/signup", auth.HandleSignup(st, cfg.Session))
	a.Handle(http.MethodPost, "/auth/login", auth.HandleLogin(st, cfg.Session, cfg.LoginLimiter))
	a.Handle(http.MethodPost, "/auth/logout", auth.HandleLogout(cfg.Session))
	a.Handle(http.MethodGet, "/users/current", auth.HandleShowCurrent(st), authen)

	a.Handle(http.MethodGet, "/categories", category.HandleList(st))
	a.Handle(http.MethodGet, "/categories/{slug}", category.HandleShow(st))

	a.Handle(http.MethodGet, "/courses", course.HandleList(st))
	a.Handle(http.MethodGet, "/courses/featured", course.HandleListFeatured(st))
	a.Handle(http.MethodGet, "/courses/latest", course.HandleListLatest(st))
	a.Handle(http.MethodGet, "/courses/{id:[0-9]+}/sections", course.HandleListSections(st))
	a.Handle(http.MethodGet, "/courses/{id:[0-9]+}/reviews", review.HandleListByCourse(st))
	a.Handle(http.MethodPost, "/courses/{id:[0-9]+}/reviews", review.HandleCreate(st), authen)
	a.Handle(http.MethodPost, "/courses/{id:[0-9]+}/enroll", enrollment.HandleEnroll(st), authen)
	a.Handle(http.MethodGet, "/courses/{slug}", course.HandleShow(st))
	a.Handle(http.MethodGet, "/testimonials", review.HandleListTestimonials(st))

	a.Handle(http.MethodPut, "/lessons/{id:[0-9]+}/progress", progress.HandleSave(st), authen)

	a.Handle(http.MethodGet, "/me/enrollments", enrollment.HandleListMine(st), authen)
	a.Handle(http.MethodPut, "/me/enrollments/{course_id:[0-9]+}/progress", enrollment.HandleUpdateProgress(st), authen)
	a.Handle(http.MethodGet, "/me/orders", order.HandleListMine(st), authen)
	a.Handle(http.MethodGet, "/me/progress", progress.HandleListRecent(st), authen)
	a.Handle(http.MethodGet, "/me/reviews", review.HandleListMine(st), authen)

	a.Handle(http.MethodGet, "/admin/users", user.HandleList(st), admin)
	a.Handle(http.MethodPut, "/admin/users/{id:[0-9]+}/status", user.HandleUpdateStatus(st), admin)
	a.Handle(http.MethodGet, "/admin/courses", course.HandleListAdmin(st), admin)
	a.Handle(http.MethodPost, "/admin/courses", course.HandleCreate(st), admin)
	a.Handle(http.MethodPut, "/admin/courses/{id:[0-9]+}", course.HandleUpdate(st), admin)
	a.Handle(http.MethodDelete, "/admin/courses/{id:[0-9]+}", course.HandleDelete(st), admin)
	a.Handle(http.MethodPost, "/admin/courses/{id:[0-9]+}/sections", course.HandleCreateSection(st), admin)
	a.Handle(http.MethodPost, "/admin/sections/{id:[0-9]+}/lessons", course.HandleCreateLesson(st), admin)
	a.Handle(http.MethodPost, "/admin/categories", category.HandleCreate(st), admin)
	a.Handle(http.MethodGet, "/admin/stats", stats.HandleShow(st), admin)
	a.Handle(http.MethodGet, "/admin/revenue", stats.HandleRevenue(st), admin)
	a.Handle(http.MethodGet, "/admin/orders/recent", order.HandleListRecent(st), admin)

	return a.Router
}

func (a *api) Handle(method string, path string, handler web.Handler, mw ...web.Middleware) {
	handler = web.WrapMiddleware(mw, handler)
	handler = web.WrapMiddleware(a.mw, handler)

	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if err := handler(ctx, w, r); err != nil {
			a.log.WithFields(logrus.Fields{
				"req_id":  middleware.ContextRequestID(ctx),
				"message": err,
			}).Error("ERROR")
		}
	})

	a.Router.Handle(path, h).Methods(method)
}
