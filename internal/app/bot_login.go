package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/example/freelosync/internal/core/marker"
	"github.com/example/freelosync/internal/models"
	"github.com/example/freelosync/internal/ports/secondary"
)

// ResolveBotLogin returns the login that authors tracking comments. An
// explicit login wins. Otherwise it is the owner of the GitHub token, or the
// Actions bot when the token is an installation token that cannot read /user.
func ResolveBotLogin(ctx context.Context, issues secondary.IssueTracker, configured string, logger *slog.Logger) (string, error) {
	if configured != "" {
		return configured, nil
	}

	login, err := issues.CurrentLogin(ctx)
	if err != nil {
		if !isForbidden(err) {
			return "", fmt.Errorf("failed to resolve the GitHub token owner: %w", err)
		}
		logger.Debug("github token cannot read the authenticated user, tracking comments are owned by the actions bot",
			"login", marker.ActionsBotLogin)
		return marker.ActionsBotLogin, nil
	}
	logger.Debug("tracking comments are owned by the token owner", "login", login)
	return login, nil
}

func isForbidden(err error) bool {
	var remote *models.RemoteError
	return errors.As(err, &remote) && remote.StatusCode == http.StatusForbidden
}
