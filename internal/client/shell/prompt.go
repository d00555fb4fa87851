package shell

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/atinyakov/GophShop/internal/avatar"
	"github.com/atinyakov/GophShop/internal/models"
)

var errPasswordMismatch = errors.New("passwords do not match")

func openFile(path string) (io.ReadCloser, error) {
	return os.Open(path)
}

// prompt prints label and returns the next trimmed input line.
func (s *Shell) prompt(label string) string {
	fmt.Fprint(s.out, label)
	if !s.in.Scan() {
		return ""
	}
	return strings.TrimSpace(s.in.Text())
}

// loadAvatar resizes the image at path into a data URI.
func (s *Shell) loadAvatar(path string) (string, error) {
	f, err := s.openFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read avatar %q: %w", path, err)
	}
	defer f.Close()
	uri, err := avatar.Resize(f, avatar.MaxWidth, avatar.MaxHeight)
	if err != nil {
		return "", fmt.Errorf("failed to process avatar: %w", err)
	}
	return uri, nil
}

// promptRegister collects the registration form.
func (s *Shell) promptRegister() (models.RegisterRequest, error) {
	req := models.RegisterRequest{
		Name:     s.prompt("Name: "),
		Email:    s.prompt("Email: "),
		Password: s.prompt("Password: "),
	}
	if confirm := s.prompt("Confirm password: "); confirm != req.Password {
		return req, errPasswordMismatch
	}
	if path := s.prompt("Avatar image path (leave empty to skip): "); path != "" {
		uri, err := s.loadAvatar(path)
		if err != nil {
			return req, err
		}
		req.Avatar = uri
	}
	return req, nil
}

// promptProfile collects profile edits. Empty answers keep the current value.
func (s *Shell) promptProfile() (models.UserUpdate, error) {
	var upd models.UserUpdate
	if name := s.prompt("New name (leave empty to keep): "); name != "" {
		upd.Name = &name
	}
	if email := s.prompt("New email (leave empty to keep): "); email != "" {
		upd.Email = &email
	}
	if path := s.prompt("New avatar image path (leave empty to keep): "); path != "" {
		uri, err := s.loadAvatar(path)
		if err != nil {
			return upd, err
		}
		upd.Avatar = &uri
	}
	return upd, nil
}
