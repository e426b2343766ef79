package pipeline

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"blinkchat/internal/attachments"
	"blinkchat/internal/models"
	"blinkchat/internal/observability"
	"blinkchat/internal/repositories"
	"blinkchat/internal/ws"
)

// ErrMalformedImage is returned when an inline image payload cannot be
// decoded.
var ErrMalformedImage = errors.New("malformed image payload")

// ImageStore is the slice of the attachment store the pipeline needs.
type ImageStore interface {
	Save(data []byte, format string) (string, error)
}

// Pipeline orchestrates joins and incoming messages: membership, attachment
// storage, message persistence, and room fan-out.
type Pipeline struct {
	repo      repositories.MessageRepository
	images    ImageStore
	hub       *ws.Hub
	retention time.Duration
	logger    *zap.Logger
	now       func() time.Time
}

// New constructs a Pipeline with the given retention window.
func New(repo repositories.MessageRepository, images ImageStore, hub *ws.Hub, retention time.Duration, logger *zap.Logger) *Pipeline {
	return &Pipeline{
		repo:      repo,
		images:    images,
		hub:       hub,
		retention: retention,
		logger:    logger,
		now:       time.Now,
	}
}

// OnJoin registers the member, announces it to the room, acknowledges the
// join privately, and replays the retention window to the joiner only.
// A missing room name is silently ignored.
func (p *Pipeline) OnJoin(ctx context.Context, member ws.Member, room string) {
	if room == "" {
		p.logger.Debug("join without room ignored", zap.String("sid", member.SID()))
		return
	}

	p.hub.Join(room, member)
	p.hub.BroadcastExcept(room, member.SID(), models.NewMemberJoinedEvent(member.SID()))
	member.Send(models.NewJoinedEvent(member.SID()))

	since := p.now().UTC().Add(-p.retention)
	msgs, err := p.repo.QueryRecent(ctx, room, since)
	if err != nil {
		p.logger.Error("replay query failed", zap.String("room", room), zap.Error(err))
		member.Send(models.NewErrorEvent("Failed to load recent messages."))
		return
	}
	for _, msg := range msgs {
		member.Send(models.NewMessageEvent(msg, AttachmentURL(msg.Image)))
	}
}

// OnMessage validates and stores an incoming message, then broadcasts it to
// the room including the sender. The arrival time is assigned here; client
// timestamps are never used.
func (p *Pipeline) OnMessage(ctx context.Context, member ws.Member, evt models.ClientEvent) {
	if evt.Room == "" {
		p.logger.Debug("message without room ignored", zap.String("sid", member.SID()))
		return
	}
	arrival := p.now().UTC()

	var ref string
	if evt.Image != "" {
		data, format, err := decodeImagePayload(evt.Image)
		if err != nil {
			if errors.Is(err, attachments.ErrUnsupportedFormat) {
				member.Send(models.NewErrorEvent("Invalid image format."))
			} else {
				member.Send(models.NewErrorEvent("Failed to process image."))
			}
			return
		}
		ref, err = p.images.Save(data, format)
		if err != nil {
			p.logger.Error("attachment save failed", zap.String("room", evt.Room), zap.Error(err))
			member.Send(models.NewErrorEvent("Failed to process image."))
			return
		}
		observability.IncAttachmentSaved()
	}

	stored, err := p.repo.Insert(ctx, models.Message{
		Room:      evt.Room,
		Text:      evt.Text,
		Image:     ref,
		Timestamp: arrival,
		SenderSID: member.SID(),
	})
	if err != nil {
		// The attachment file, if any, stays orphaned until operators clean
		// the upload dir; the next sweep only removes files with rows.
		p.logger.Error("message insert failed", zap.String("room", evt.Room), zap.Error(err))
		member.Send(models.NewErrorEvent("Failed to store message."))
		return
	}
	observability.IncMessageStored()

	p.hub.Broadcast(evt.Room, models.NewMessageEvent(stored, AttachmentURL(stored.Image)))
}

// OnDisconnect drops the member from every room.
func (p *Pipeline) OnDisconnect(member ws.Member) {
	p.hub.LeaveAll(member.SID())
}

// AttachmentURL maps an opaque attachment reference to the URL the static
// serving route exposes, or "" for no attachment.
func AttachmentURL(ref string) string {
	if ref == "" {
		return ""
	}
	return "/uploads/" + ref
}

// decodeImagePayload splits a data-URL style payload
// ("data:image/png;base64,<bytes>") into raw bytes and the declared format.
// The format tag is checked against the allow-list before any decoding.
func decodeImagePayload(payload string) ([]byte, string, error) {
	header, encoded, ok := strings.Cut(payload, ",")
	if !ok {
		return nil, "", ErrMalformedImage
	}
	format := header
	if i := strings.LastIndex(format, "/"); i >= 0 {
		format = format[i+1:]
	}
	if i := strings.Index(format, ";"); i >= 0 {
		format = format[:i]
	}
	if !attachments.FormatAllowed(format) {
		return nil, "", attachments.ErrUnsupportedFormat
	}
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrMalformedImage, err)
	}
	return data, format, nil
}
