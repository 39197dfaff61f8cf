package server

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/braintree/manners"
	"github.com/gorilla/mux"
	"github.com/meatballhat/expvarplus"
	negronilogrus "github.com/meatballhat/negroni-logrus"
	"github.com/phyber/negroni-gzip/gzip"
	"github.com/sirupsen/logrus"
	"github.com/urfave/negroni"
)

func init() {
	expvarplus.AddToEnvSafelist("VERSION", "REVISION", "GENERATED", "DEBUG",
		"HOSTNAME", "PORT", "SHUDDER_SQS_PREFIX", "SHUDDER_SNS_TOPIC",
		"SHUDDER_ADDR", "SHUDDER_HEARTBEAT_INTERVAL", "AWS_DEFAULT_REGION")
}

// Server is a small read-only status surface over the daemon, mostly
// so operators and health checks can see which lifecycle state the
// instance is in.
type Server struct {
	addr string
	log  *logrus.Logger

	stateFunc func() string

	n *negroni.Negroni
	r *mux.Router
	s *manners.GracefulServer
}

// New builds a Server that reports whatever stateFunc returns
func New(addr string, log *logrus.Logger, stateFunc func() string) *Server {
	srv := &Server{
		addr: addr,
		log:  log,

		stateFunc: stateFunc,

		n: negroni.New(),
		r: mux.NewRouter(),
	}

	srv.setupRoutes()
	srv.setupMiddleware()

	srv.s = manners.NewWithServer(&http.Server{
		Addr:    addr,
		Handler: srv.n,
	})

	return srv
}

// Run listens until Stop is called
func (srv *Server) Run() {
	srv.log.WithField("addr", srv.addr).Info("status server listening")
	err := srv.s.ListenAndServe()
	if err != nil {
		srv.log.WithField("err", err).Error("status server stopped")
	}
}

// Stop shuts the listener down gracefully
func (srv *Server) Stop() {
	srv.s.Close()
}

// ServeHTTP exists so tests can drive the handler stack directly
func (srv *Server) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	srv.n.ServeHTTP(w, req)
}

func (srv *Server) setupRoutes() {
	srv.r.HandleFunc(`/`, srv.handleGetRoot).Methods("GET").Name("ohai")
	srv.r.HandleFunc(`/state`, srv.handleState).Methods("GET").Name("state")
	srv.r.HandleFunc(`/debug/vars`, expvarplus.HandleExpvars).Methods("GET").Name("expvars")
}

func (srv *Server) setupMiddleware() {
	srv.n.Use(negroni.NewRecovery())
	srv.n.Use(negronilogrus.NewMiddleware())
	srv.n.Use(gzip.Gzip(gzip.DefaultCompression))
	srv.n.UseHandler(srv.r)
}

func (srv *Server) handleGetRoot(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, "ohai\n")
}

func (srv *Server) handleState(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"state": srv.stateFunc(),
	})
}
