package gateway

import (
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"

	"github.com/sparkdeploy/spark/log"
)

// Routes is the shared table mapping hostnames to deployed applications.
// Gateway requests take the read lock; route registration during a deploy
// takes the write lock. Last writer for a hostname wins.
type Routes struct {
	mu sync.RWMutex

	// domain -> document root (e.g. "mysite.local" -> ".../apps/site/dist")
	static map[string]string

	// domain -> backend port (e.g. "api.local" -> 3000)
	proxy map[string]int
}

// NewRoutes creates an empty routing table.
func NewRoutes() *Routes {
	return &Routes{
		static: make(map[string]string),
		proxy:  make(map[string]int),
	}
}

// RegisterStatic publishes a static document root under a domain.
func (r *Routes) RegisterStatic(domain, root string) {
	r.mu.Lock()
	r.static[domain] = root
	r.mu.Unlock()
}

// RegisterProxy records a backend port for a domain. The proxy table is a
// routing-table entry only; requests hitting it get a stub response.
func (r *Routes) RegisterProxy(domain string, port int) {
	r.mu.Lock()
	r.proxy[domain] = port
	r.mu.Unlock()
}

// StaticRoute looks up the document root for a domain.
func (r *Routes) StaticRoute(domain string) (string, bool) {
	r.mu.RLock()
	root, ok := r.static[domain]
	r.mu.RUnlock()
	return root, ok
}

// ProxyRoute looks up the backend port for a domain.
func (r *Routes) ProxyRoute(domain string) (int, bool) {
	r.mu.RLock()
	port, ok := r.proxy[domain]
	r.mu.RUnlock()
	return port, ok
}

// StripPort removes the port suffix from a Host header value.
func StripPort(host string) string {
	if idx := strings.IndexByte(host, ':'); idx >= 0 {
		return host[:idx]
	}
	return host
}

// Engine builds the gateway router. Every request is dispatched on its Host
// header, so routing lives in the NoRoute handler.
func Engine(routes *Routes) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(log.LogMiddleware())
	r.NoRoute(func(c *gin.Context) {
		handleRequest(routes, c)
	})

	return r
}

func handleRequest(routes *Routes, c *gin.Context) {
	hostname := StripPort(c.Request.Host)

	if root, ok := routes.StaticRoute(hostname); ok {
		log.LogAccess.Infof("serving static for %s: %s", hostname, root)
		http.FileServer(http.Dir(root)).ServeHTTP(c.Writer, c.Request)
		return
	}

	if port, ok := routes.ProxyRoute(hostname); ok {
		// TODO: real reverse proxy; the table entry is kept so a later
		// implementation can pick it up without a manifest change.
		c.String(http.StatusOK, fmt.Sprintf("Proxying to localhost:%d (not implemented yet)", port))
		return
	}

	c.String(http.StatusNotFound, "Domain not configured in Spark")
}

// Run serves the gateway on addr until the listener fails.
func Run(routes *Routes, addr string) error {
	log.LogAccess.Infof("HTTP gateway listening on %s", addr)
	return http.ListenAndServe(addr, Engine(routes))
}
