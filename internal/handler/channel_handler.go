package handler

import (
	stderrors "errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"

	"yt-notify/internal/channel"
	"yt-notify/internal/container"
	"yt-notify/internal/domain"
	"yt-notify/internal/middleware"
	"yt-notify/internal/service/youtube"
	"yt-notify/pkg/errors"
	"yt-notify/pkg/feed"
)

// ChannelHandler exposes the channel hub over HTTP
type ChannelHandler struct {
	container *container.Container

	mu        sync.Mutex
	factories map[string]*youtube.UploadsFactory
	// inboxes outlive their registration so that an inbox that unsubscribed
	// itself at its limit can still be read; DELETE drops them
	inboxes map[string]map[channel.Token]*channel.Inbox
}

// NewChannelHandler creates a new channel handler
func NewChannelHandler(container *container.Container) *ChannelHandler {
	return &ChannelHandler{
		container: container,
		factories: make(map[string]*youtube.UploadsFactory),
		inboxes:   make(map[string]map[channel.Token]*channel.Inbox),
	}
}

// RegisterRoutes mounts the channel routes. protect guards mutating routes;
// limit is applied to publishing on top of protect.
func (h *ChannelHandler) RegisterRoutes(r chi.Router, protect, limit func(http.Handler) http.Handler) {
	r.Route("/channels", func(r chi.Router) {
		r.Get("/", h.ListChannels)
		r.With(protect).Post("/", h.CreateChannel)

		r.Route("/{name}", func(r chi.Router) {
			r.Get("/", h.GetChannel)
			r.Get("/content", h.GetContent)
			r.Get("/feed.rss", h.GetFeed)
			r.Get("/stats", h.GetStats)
			r.Get("/archive", h.GetArchive)
			r.Get("/subscribers/{token}/inbox", h.GetInbox)

			r.Group(func(r chi.Router) {
				r.Use(protect)

				r.Delete("/", h.DeleteChannel)
				r.Post("/subscribers", h.Subscribe)
				r.Delete("/subscribers/{token}", h.Unsubscribe)
				r.Post("/notify", h.Notify)
				r.With(limit).Post("/publish", h.Publish)
			})
		})
	})
}

// CreateChannelRequest is the body of POST /api/channels
type CreateChannelRequest struct {
	Name     string `json:"name"`
	SourceID string `json:"source_id,omitempty"`
}

// SubscribeRequest is the body of POST /api/channels/{name}/subscribers
type SubscribeRequest struct {
	Name  string `json:"name"`
	Limit int    `json:"limit,omitempty"`
}

// SubscribeResponse is returned when a subscriber is registered
type SubscribeResponse struct {
	Token   string `json:"token"`
	Name    string `json:"name"`
	Limit   int    `json:"limit,omitempty"`
	Channel string `json:"channel"`
}

// PublishRequest is the body of POST /api/channels/{name}/publish.
// Source "youtube" publishes the newest upload of the channel's YouTube source.
type PublishRequest struct {
	Kind   string `json:"kind,omitempty"`
	Source string `json:"source,omitempty"`
}

// PublishResponse describes the published content and the notification round
type PublishResponse struct {
	Content domain.Content `json:"content"`
	Round   channel.Result `json:"round"`
}

// ArchiveResponse is a page of the persistent archive of a channel
type ArchiveResponse struct {
	Channel string                    `json:"channel"`
	Total   int64                     `json:"total"`
	Items   []*domain.ArchivedContent `json:"items"`
}

// ContentItem is one entry of the content log
type ContentItem struct {
	Seq int `json:"seq"`
	domain.Content
}

// ListChannels handles GET /api/channels
func (h *ChannelHandler) ListChannels(w http.ResponseWriter, r *http.Request) {
	channels := h.container.GetHub().List()

	summaries := make([]domain.ChannelSummary, 0, len(channels))
	for _, ch := range channels {
		summaries = append(summaries, summarize(ch, false))
	}

	writeJSON(w, http.StatusOK, summaries, "Channels retrieved successfully", h.container.GetLogger())
}

// CreateChannel handles POST /api/channels
func (h *ChannelHandler) CreateChannel(w http.ResponseWriter, r *http.Request) {
	logger := h.container.GetLogger()

	var req CreateChannelRequest
	if appErr := decodeJSON(r, &req); appErr != nil {
		writeErrorResponse(w, r, appErr, logger)
		return
	}

	var opts []channel.Option
	if req.SourceID != "" {
		if appErr := h.verifySource(r, req.SourceID); appErr != nil {
			writeErrorResponse(w, r, appErr, logger)
			return
		}
		opts = append(opts, channel.WithSourceID(req.SourceID))
	}

	ch, err := h.container.GetHub().Create(req.Name, opts...)
	switch {
	case stderrors.Is(err, channel.ErrInvalidName):
		writeErrorResponse(w, r, errors.NewValidationError("Channel name is required", map[string]interface{}{
			"field": "name",
		}), logger)
		return
	case stderrors.Is(err, channel.ErrChannelExists):
		writeErrorResponse(w, r, errors.NewConflictError("Channel already exists"), logger)
		return
	case err != nil:
		writeErrorResponse(w, r, errors.NewInternalError("Failed to create channel", err), logger)
		return
	}

	logger.WithFields(map[string]interface{}{
		"channel":   ch.Name(),
		"source_id": ch.SourceID(),
	}).Info("Channel created")

	writeJSON(w, http.StatusCreated, summarize(ch, true), "Channel created successfully", logger)
}

// GetChannel handles GET /api/channels/{name}
func (h *ChannelHandler) GetChannel(w http.ResponseWriter, r *http.Request) {
	ch, ok := h.lookupChannel(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, summarize(ch, true), "Channel retrieved successfully", h.container.GetLogger())
}

// DeleteChannel handles DELETE /api/channels/{name}
func (h *ChannelHandler) DeleteChannel(w http.ResponseWriter, r *http.Request) {
	logger := h.container.GetLogger()
	name := channelName(r)

	if !h.container.GetHub().Delete(name) {
		writeErrorResponse(w, r, errors.NewNotFoundError("Channel not found"), logger)
		return
	}

	h.mu.Lock()
	delete(h.factories, name)
	delete(h.inboxes, name)
	h.mu.Unlock()

	logger.WithField("channel", name).Info("Channel deleted")
	writeJSON(w, http.StatusOK, map[string]string{"name": name}, "Channel deleted successfully", logger)
}

// Subscribe handles POST /api/channels/{name}/subscribers
func (h *ChannelHandler) Subscribe(w http.ResponseWriter, r *http.Request) {
	logger := h.container.GetLogger()

	ch, ok := h.lookupChannel(w, r)
	if !ok {
		return
	}

	var req SubscribeRequest
	if appErr := decodeJSON(r, &req); appErr != nil {
		writeErrorResponse(w, r, appErr, logger)
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeErrorResponse(w, r, errors.NewValidationError("Subscriber name is required", map[string]interface{}{
			"field": "name",
		}), logger)
		return
	}
	if req.Limit < 0 {
		writeErrorResponse(w, r, errors.NewValidationError("Limit must not be negative", map[string]interface{}{
			"field": "limit",
		}), logger)
		return
	}

	inbox := channel.NewInbox(req.Name, req.Limit)
	token := ch.Add(inbox)

	h.mu.Lock()
	if h.inboxes[ch.Name()] == nil {
		h.inboxes[ch.Name()] = make(map[channel.Token]*channel.Inbox)
	}
	h.inboxes[ch.Name()][token] = inbox
	h.mu.Unlock()

	writeJSON(w, http.StatusCreated, SubscribeResponse{
		Token:   string(token),
		Name:    inbox.Name(),
		Limit:   inbox.Limit(),
		Channel: ch.Name(),
	}, "Subscriber added successfully", logger)
}

// Unsubscribe handles DELETE /api/channels/{name}/subscribers/{token}
func (h *ChannelHandler) Unsubscribe(w http.ResponseWriter, r *http.Request) {
	logger := h.container.GetLogger()

	ch, ok := h.lookupChannel(w, r)
	if !ok {
		return
	}

	token := channel.Token(chi.URLParam(r, "token"))
	registered := ch.RemoveToken(token)

	h.mu.Lock()
	_, indexed := h.inboxes[ch.Name()][token]
	delete(h.inboxes[ch.Name()], token)
	h.mu.Unlock()

	// An inbox that unsubscribed itself at its limit is only left in the index
	if !registered && !indexed {
		writeErrorResponse(w, r, errors.NewNotFoundError("Subscriber not found"), logger)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"token": string(token)}, "Subscriber removed successfully", logger)
}

// GetInbox handles GET /api/channels/{name}/subscribers/{token}/inbox
func (h *ChannelHandler) GetInbox(w http.ResponseWriter, r *http.Request) {
	logger := h.container.GetLogger()

	ch, ok := h.lookupChannel(w, r)
	if !ok {
		return
	}

	h.mu.Lock()
	inbox, found := h.inboxes[ch.Name()][channel.Token(chi.URLParam(r, "token"))]
	h.mu.Unlock()

	if !found {
		writeErrorResponse(w, r, errors.NewNotFoundError("Subscriber not found"), logger)
		return
	}

	writeJSON(w, http.StatusOK, inbox.Items(), "Inbox retrieved successfully", logger)
}

// Publish handles POST /api/channels/{name}/publish
func (h *ChannelHandler) Publish(w http.ResponseWriter, r *http.Request) {
	logger := h.container.GetLogger()

	ch, ok := h.lookupChannel(w, r)
	if !ok {
		return
	}

	var req PublishRequest
	if appErr := decodeJSON(r, &req); appErr != nil {
		writeErrorResponse(w, r, appErr, logger)
		return
	}

	factory, appErr := h.factoryFor(ch, req)
	if appErr != nil {
		writeErrorResponse(w, r, appErr, logger)
		return
	}

	content, result, err := ch.Publish(r.Context(), factory)
	if err != nil {
		if stderrors.Is(err, youtube.ErrNoNewUploads) {
			writeErrorResponse(w, r, errors.NewConflictError("No new uploads since the last publish"), logger)
			return
		}
		writeErrorResponse(w, r, errors.AsAppError(err, "Failed to publish content"), logger)
		return
	}

	h.recordRound(r, ch.Name(), result)

	entry := logger.WithFields(map[string]interface{}{
		"channel":   ch.Name(),
		"title":     content.Title,
		"delivered": result.Delivered,
	})
	if publisher, ok := middleware.GetPublisher(r.Context()); ok {
		entry = entry.WithField("publisher", publisher.Subject)
	}
	entry.Info("Content published")

	writeJSON(w, http.StatusCreated, PublishResponse{Content: content, Round: result}, "Content published successfully", logger)
}

// Notify handles POST /api/channels/{name}/notify
func (h *ChannelHandler) Notify(w http.ResponseWriter, r *http.Request) {
	ch, ok := h.lookupChannel(w, r)
	if !ok {
		return
	}

	result := ch.NotifyAll()
	h.recordRound(r, ch.Name(), result)

	message := "Subscribers notified successfully"
	if err := result.Err(); err != nil {
		message = err.Error()
	}
	writeJSON(w, http.StatusOK, result, message, h.container.GetLogger())
}

// GetContent handles GET /api/channels/{name}/content
func (h *ChannelHandler) GetContent(w http.ResponseWriter, r *http.Request) {
	ch, ok := h.lookupChannel(w, r)
	if !ok {
		return
	}

	log := ch.Content()
	items := make([]ContentItem, 0, len(log))
	for seq, content := range log {
		items = append(items, ContentItem{Seq: seq, Content: content})
	}

	writeJSON(w, http.StatusOK, items, "Content retrieved successfully", h.container.GetLogger())
}

// GetFeed handles GET /api/channels/{name}/feed.rss
func (h *ChannelHandler) GetFeed(w http.ResponseWriter, r *http.Request) {
	logger := h.container.GetLogger()

	ch, ok := h.lookupChannel(w, r)
	if !ok {
		return
	}

	rss, err := feed.Render(ch.Name(), ch.Content(), feed.BaseURL(r, h.container.GetConfig().BaseURL))
	if err != nil {
		writeErrorResponse(w, r, errors.NewInternalError("Failed to render feed", err), logger)
		return
	}

	w.Header().Set("Content-Type", "application/rss+xml; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte(rss)); err != nil {
		logger.WithError(err).Error("Failed to write feed")
	}
}

// GetStats handles GET /api/channels/{name}/stats
func (h *ChannelHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	logger := h.container.GetLogger()

	ch, ok := h.lookupChannel(w, r)
	if !ok {
		return
	}

	stats := h.container.GetStatsService()
	if stats == nil {
		writeErrorResponse(w, r, errors.NewUnavailableError("Stats are not available without Redis"), logger)
		return
	}

	result, err := stats.GetStats(r.Context(), ch.Name())
	if err != nil {
		writeErrorResponse(w, r, errors.NewInternalError("Failed to read stats", err), logger)
		return
	}

	writeJSON(w, http.StatusOK, result, "Stats retrieved successfully", logger)
}

// GetArchive handles GET /api/channels/{name}/archive?limit=N
func (h *ChannelHandler) GetArchive(w http.ResponseWriter, r *http.Request) {
	logger := h.container.GetLogger()

	archive := h.container.GetArchiveService()
	if archive == nil {
		writeErrorResponse(w, r, errors.NewUnavailableError("Archive is not available without a database"), logger)
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			writeErrorResponse(w, r, errors.NewValidationError("Invalid limit", map[string]interface{}{
				"field": "limit",
			}), logger)
			return
		}
		limit = parsed
	}

	name := channelName(r)
	items, err := archive.History(r.Context(), name, limit)
	if err != nil {
		writeErrorResponse(w, r, errors.AsAppError(err, "Failed to read archive"), logger)
		return
	}

	total, err := archive.Count(r.Context(), name)
	if err != nil {
		writeErrorResponse(w, r, errors.AsAppError(err, "Failed to read archive"), logger)
		return
	}

	writeJSON(w, http.StatusOK, ArchiveResponse{Channel: name, Total: total, Items: items}, "Archive retrieved successfully", logger)
}

// verifySource checks that a YouTube channel id exists. Without YouTube
// credentials the id is accepted as given.
func (h *ChannelHandler) verifySource(r *http.Request, sourceID string) *errors.AppError {
	yt := h.container.GetYouTubeService()
	if yt == nil {
		return nil
	}

	info, err := yt.GetChannelInfo(r.Context(), sourceID)
	if err != nil {
		appErr := errors.AsAppError(err, "Failed to verify YouTube channel")
		if appErr.Type == errors.ErrorTypeNotFound {
			return errors.NewValidationError("YouTube channel not found", map[string]interface{}{
				"field": "source_id",
			})
		}
		return appErr
	}

	h.container.GetLogger().WithFields(map[string]interface{}{
		"source_id":     info.ID,
		"channel_title": info.Title,
	}).Debug("YouTube source verified")
	return nil
}

// factoryFor picks the content factory for a publish request
func (h *ChannelHandler) factoryFor(ch *channel.Channel, req PublishRequest) (channel.ContentFactory, *errors.AppError) {
	switch strings.ToLower(strings.TrimSpace(req.Source)) {
	case "":
	case "youtube":
		yt := h.container.GetYouTubeService()
		if yt == nil {
			return nil, errors.NewUnavailableError("YouTube is not configured")
		}
		if ch.SourceID() == "" {
			return nil, errors.NewValidationError("Channel has no YouTube source", map[string]interface{}{
				"field": "source_id",
			})
		}

		h.mu.Lock()
		defer h.mu.Unlock()
		factory, ok := h.factories[ch.Name()]
		if !ok {
			factory = youtube.NewUploadsFactory(yt, ch.SourceID())
			h.factories[ch.Name()] = factory
		}
		return factory, nil
	default:
		return nil, errors.NewValidationError("Unknown content source", map[string]interface{}{
			"field": "source",
		})
	}

	kind := domain.KindVideo
	if req.Kind != "" {
		parsed, err := domain.ParseContentKind(req.Kind)
		if err != nil {
			return nil, errors.NewValidationError("Kind must be video or photo", map[string]interface{}{
				"field": "kind",
			})
		}
		kind = parsed
	}

	factory, err := channel.FactoryFor(kind)
	if err != nil {
		return nil, errors.NewValidationError(err.Error(), nil)
	}
	return factory, nil
}

func (h *ChannelHandler) recordRound(r *http.Request, name string, result channel.Result) {
	stats := h.container.GetStatsService()
	if stats == nil {
		return
	}
	if err := stats.RecordRound(r.Context(), name, result); err != nil {
		h.container.GetLogger().WithError(err).WithField("channel", name).Warn("Failed to record notification round")
	}
}

// lookupChannel resolves {name} or writes a 404
func (h *ChannelHandler) lookupChannel(w http.ResponseWriter, r *http.Request) (*channel.Channel, bool) {
	ch, ok := h.container.GetHub().Get(channelName(r))
	if !ok {
		writeErrorResponse(w, r, errors.NewNotFoundError("Channel not found"), h.container.GetLogger())
		return nil, false
	}
	return ch, true
}

func channelName(r *http.Request) string {
	name := chi.URLParam(r, "name")
	if unescaped, err := url.PathUnescape(name); err == nil {
		return unescaped
	}
	return name
}

func summarize(ch *channel.Channel, withSubscribers bool) domain.ChannelSummary {
	regs := ch.Subscribers()
	summary := domain.ChannelSummary{
		Name:            ch.Name(),
		SourceID:        ch.SourceID(),
		SubscriberCount: len(regs),
		ContentCount:    len(ch.Content()),
	}
	if latest, ok := ch.Latest(); ok {
		summary.Latest = &latest
	}

	if withSubscribers {
		summary.Subscribers = make([]domain.SubscriberSummary, 0, len(regs))
		for _, reg := range regs {
			sub := domain.SubscriberSummary{
				Token:   string(reg.Token),
				Name:    reg.Observer.Name(),
				AddedAt: reg.AddedAt,
			}
			if inbox, ok := reg.Observer.(*channel.Inbox); ok {
				sub.Received = inbox.Received()
			}
			summary.Subscribers = append(summary.Subscribers, sub)
		}
	}

	return summary
}
