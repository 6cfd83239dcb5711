// Package web exposes the HTTP surface: credential endpoints, session
// cookies, the chat pages, and the WebSocket upgrade into the hub.
package web

import (
	"errors"
	"path/filepath"

	"github.com/gofiber/fiber/v3"

	"github.com/anonchat/server/src/auth"
	"github.com/anonchat/server/src/session"
)

const sessionCookie = "anonchat_session"

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// newApp builds the fiber application for everything except /ws.
func (s *Server) newApp() *fiber.App {
	app := fiber.New()

	app.Post("/register", s.handleRegister)
	app.Post("/login", s.handleLogin)
	app.Post("/logout", s.handleLogout)
	app.Get("/api/user", s.handleCurrentUser)
	app.Get("/api/online", s.handleOnline)
	app.Get("/", s.handleIndex)
	app.Get("/chat", s.handleChat)

	return app
}

func (s *Server) handleRegister(c fiber.Ctx) error {
	var creds credentials
	if err := c.Bind().Body(&creds); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "email and password are required"})
	}

	acc, err := s.auth.Register(creds.Email, creds.Password)
	switch {
	case err == nil:
	case errors.Is(err, auth.ErrMissingFields), errors.Is(err, auth.ErrInvalidEmail), errors.Is(err, auth.ErrEmailTaken):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	default:
		s.logger.Error().Err(err).Msg("registration failed")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "registration failed"})
	}

	if err := s.startSession(c, acc); err != nil {
		s.logger.Error().Err(err).Msg("session create failed")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "registration failed"})
	}
	return c.JSON(fiber.Map{"success": true, "username": acc.Username})
}

func (s *Server) handleLogin(c fiber.Ctx) error {
	var creds credentials
	if err := c.Bind().Body(&creds); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "email and password are required"})
	}

	acc, err := s.auth.Login(creds.Email, creds.Password)
	switch {
	case err == nil:
	case errors.Is(err, auth.ErrMissingFields):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, auth.ErrInvalidCredentials):
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": err.Error()})
	default:
		s.logger.Error().Err(err).Msg("login failed")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "login failed"})
	}

	if err := s.startSession(c, acc); err != nil {
		s.logger.Error().Err(err).Msg("session create failed")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "login failed"})
	}
	return c.JSON(fiber.Map{"success": true, "username": acc.Username})
}

func (s *Server) handleLogout(c fiber.Ctx) error {
	if token := c.Cookies(sessionCookie); token != "" {
		if err := s.sessions.Delete(c.Context(), token); err != nil {
			s.logger.Error().Err(err).Msg("session delete failed")
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "logout failed"})
		}
	}
	c.ClearCookie(sessionCookie)
	return c.JSON(fiber.Map{"success": true})
}

func (s *Server) handleCurrentUser(c fiber.Ctx) error {
	sess, ok := s.currentSession(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "not logged in"})
	}
	return c.JSON(fiber.Map{"username": sess.Username})
}

func (s *Server) handleOnline(c fiber.Ctx) error {
	users := s.hub.Identities()
	return c.JSON(fiber.Map{"online": users, "count": len(users)})
}

func (s *Server) handleIndex(c fiber.Ctx) error {
	if _, ok := s.currentSession(c); ok {
		return c.Redirect().To("/chat")
	}
	return c.SendFile(filepath.Join(s.cfg.PublicDir, "index.html"))
}

func (s *Server) handleChat(c fiber.Ctx) error {
	if _, ok := s.currentSession(c); !ok {
		return c.Redirect().To("/")
	}
	return c.SendFile(filepath.Join(s.cfg.PublicDir, "chat.html"))
}

func (s *Server) startSession(c fiber.Ctx, acc auth.Account) error {
	token, err := s.sessions.Create(c.Context(), session.Session{Email: acc.Email, Username: acc.Username})
	if err != nil {
		return err
	}
	c.Cookie(&fiber.Cookie{
		Name:     sessionCookie,
		Value:    token,
		HTTPOnly: true,
		Path:     "/",
	})
	return nil
}

func (s *Server) currentSession(c fiber.Ctx) (session.Session, bool) {
	token := c.Cookies(sessionCookie)
	if token == "" {
		return session.Session{}, false
	}
	sess, err := s.sessions.Get(c.Context(), token)
	if err != nil {
		return session.Session{}, false
	}
	return sess, true
}
