package bot

import (
	"strings"
	"sync"

	telebot "gopkg.in/telebot.v3"

	"github.com/Proton-105/cashflow-bot/internal/middleware"
)

// Router dispatches commands it knows and hands everything else to the default handler.
type Router struct {
	mu             sync.RWMutex
	commands       map[string]telebot.HandlerFunc
	defaultHandler telebot.HandlerFunc
	middlewares    []telebot.MiddlewareFunc
}

// NewRouter builds a Router with empty registries.
func NewRouter() *Router {
	return &Router{
		commands: make(map[string]telebot.HandlerFunc),
	}
}

// RegisterCommand registers a handler for a bot command such as "/help". Commands match regardless of case.
func (r *Router) RegisterCommand(cmd string, h telebot.HandlerFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.commands[strings.ToLower(cmd)] = h
}

// Use appends a middleware to the chain. The first registered middleware runs outermost.
func (r *Router) Use(mw ...telebot.MiddlewareFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.middlewares = append(r.middlewares, mw...)
}

// SetDefault sets the handler for updates no command matches.
func (r *Router) SetDefault(h telebot.HandlerFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.defaultHandler = h
}

// Route directs the incoming update to the appropriate handler.
func (r *Router) Route(c telebot.Context) error {
	if c == nil {
		return nil
	}

	r.mu.RLock()
	handler := r.defaultHandler
	if c.Callback() == nil {
		if h, ok := r.commands[middleware.Action(c)]; ok {
			handler = h
		}
	}
	chain := make([]telebot.MiddlewareFunc, len(r.middlewares))
	copy(chain, r.middlewares)
	r.mu.RUnlock()

	if handler == nil {
		return nil
	}

	for i := len(chain) - 1; i >= 0; i-- {
		handler = chain[i](handler)
	}
	return handler(c)
}
