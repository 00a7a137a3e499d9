package http

import (
	"net/http"
	"strconv"
	"time"

	"fintrack/internal/auth"
	"fintrack/internal/core"
)

const defaultNotificationLimit = 50

func (s *Server) handleListNotifications(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())

	unreadOnly, _ := strconv.ParseBool(r.URL.Query().Get("unread_only"))
	limit := queryInt(r, "limit", defaultNotificationLimit)

	notifications, err := s.storage.ListNotifications(r.Context(), userID, unreadOnly, limit)
	if err != nil {
		writeStorageError(w, r, err, "notifications")
		return
	}

	views := make([]notificationView, len(notifications))
	for i, n := range notifications {
		views[i] = viewNotification(n)
	}
	writeJSON(w, http.StatusOK, map[string]any{"notifications": views})
}

func (s *Server) handleNotificationSummary(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())

	total, byType, err := s.storage.UnreadNotificationCounts(r.Context(), userID)
	if err != nil {
		writeStorageError(w, r, err, "notifications")
		return
	}

	counts := map[string]int{}
	for typ, n := range byType {
		counts[string(typ)] = n
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"unread_count": total,
		"by_type":      counts,
	})
}

func (s *Server) handleMarkNotificationRead(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())

	if err := s.storage.MarkNotificationRead(r.Context(), userID, pathID(r, "id")); err != nil {
		writeStorageError(w, r, err, "notification")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "notification marked as read"})
}

func (s *Server) handleMarkAllNotificationsRead(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())

	n, err := s.storage.MarkAllNotificationsRead(r.Context(), userID)
	if err != nil {
		writeStorageError(w, r, err, "notifications")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "all notifications marked as read", "updated": n})
}

// handleCurrentTime returns one clock reading in every wire format the
// client needs, so browsers with skewed clocks can trust the server.
func (s *Server) handleCurrentTime(w http.ResponseWriter, r *http.Request) {
	now := time.Now()
	writeJSON(w, http.StatusOK, map[string]any{
		"datetime_local": core.FormatDateTime(now),
		"mysql_format":   core.FormatDateTime(now),
		"timestamp":      now.Unix(),
		"iso":            now.Format(time.RFC3339),
	})
}
