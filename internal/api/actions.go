package api

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/dmitrymomot/folio/internal/blob"
	"github.com/dmitrymomot/folio/internal/notify"
	"github.com/dmitrymomot/folio/internal/record"
	"github.com/dmitrymomot/folio/pkg/validator"
)

// Fixed action names. Entity actions are derived from the catalogue as
// add<Name>, update<Name> and delete<Name>; singletons get update<Name>.
const (
	ActionGetData       = "getData"
	ActionLogin         = "LOGIN"
	ActionSubmitMessage = "sub_msg"
	ActionMessageStatus = "updateMessageStatus"
	ActionUploadFile    = "UPLOAD_FILE"
	ActionChangePasswd  = "CHANGE_PASSWORD"

	messageEntity = "Message"
	maxMessageLen = 2000
)

func (s *Service) buildActions() map[string]action {
	m := map[string]action{
		ActionGetData:      {run: s.getData},
		ActionLogin:        {run: s.login},
		ActionUploadFile:   {run: s.uploadFile, protected: true},
		ActionChangePasswd: {run: s.changePassword, protected: true, mutates: true},
	}

	for _, e := range s.catalog.Entities {
		m["add"+e.Name] = action{run: s.create(e.Collection), protected: true, mutates: true}
		m["update"+e.Name] = action{run: s.update(e.Collection), protected: true, mutates: true}
		m["delete"+e.Name] = action{run: s.delete(e.Collection), protected: true, mutates: true}
	}
	for _, e := range s.catalog.Singletons {
		m["update"+e.Name] = action{run: s.writeSingleton(e.Collection), protected: true, mutates: true}
	}

	if msg, ok := s.catalog.Entity(messageEntity); ok {
		m[ActionSubmitMessage] = action{run: s.submitMessage(msg.Collection), mutates: true}
		m[ActionMessageStatus] = action{run: s.messageStatus(msg.Collection), protected: true, mutates: true}
	}
	return m
}

func (s *Service) getData(ctx context.Context, req Request) (any, error) {
	token := req.Auth
	if token == "" {
		var d struct {
			Auth string `json:"auth"`
		}
		_ = req.decode(&d)
		token = d.Auth
	}
	admin := s.auth.IsAuthenticated(ctx, token)

	out := make(map[string]any, len(s.catalog.Entities)+len(s.catalog.Singletons))
	for _, e := range s.catalog.Entities {
		if e.Private && !admin {
			continue
		}
		list, err := s.store.List(ctx, e.Collection)
		if err != nil {
			return nil, err
		}
		out[e.Collection] = list
	}
	for _, e := range s.catalog.Singletons {
		r, err := s.singletons.Get(ctx, e.Collection)
		if err != nil {
			return nil, err
		}
		out[e.Collection] = r
	}
	return out, nil
}

type loginResult struct {
	Token     string `json:"token"`
	ExpiresIn int64  `json:"expiresIn"`
}

func (s *Service) login(ctx context.Context, req Request) (any, error) {
	var d struct {
		Password string `json:"password"`
	}
	if err := req.decode(&d); err != nil {
		return nil, err
	}
	tok, err := s.auth.Login(ctx, d.Password)
	if err != nil {
		return nil, err
	}
	return loginResult{Token: tok.Value, ExpiresIn: int64(tok.ExpiresIn / time.Second)}, nil
}

type created struct {
	ID string `json:"id"`
}

func (s *Service) create(collection string) handlerFunc {
	return func(ctx context.Context, req Request) (any, error) {
		p, err := req.payload()
		if err != nil {
			return nil, err
		}
		if req.ID != "" && !p.Has("id") {
			p.Set("id", record.String(req.ID))
		}
		id, err := s.store.Create(ctx, collection, p)
		if err != nil {
			return nil, err
		}
		return created{ID: id}, nil
	}
}

func (s *Service) update(collection string) handlerFunc {
	return func(ctx context.Context, req Request) (any, error) {
		id := req.targetID()
		if id == "" {
			return nil, ErrMissingID
		}
		p, err := req.payload()
		if err != nil {
			return nil, err
		}
		return nil, s.store.Update(ctx, collection, id, p)
	}
}

func (s *Service) delete(collection string) handlerFunc {
	return func(ctx context.Context, req Request) (any, error) {
		id := req.targetID()
		if id == "" {
			return nil, ErrMissingID
		}
		return nil, s.store.Delete(ctx, collection, id)
	}
}

func (s *Service) writeSingleton(name string) handlerFunc {
	return func(ctx context.Context, req Request) (any, error) {
		p, err := req.payload()
		if err != nil {
			return nil, err
		}
		return nil, s.singletons.Write(ctx, name, p)
	}
}

type submittedMessage struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Subject string `json:"subject"`
	Message string `json:"message"`
}

// submitMessage stores an anonymous contact message. Only the contact
// fields are taken from the caller; status and date are set here.
func (s *Service) submitMessage(collection string) handlerFunc {
	return func(ctx context.Context, req Request) (any, error) {
		var d submittedMessage
		if err := req.decode(&d); err != nil {
			return nil, err
		}
		d.Name = strings.TrimSpace(d.Name)
		d.Email = strings.TrimSpace(d.Email)

		if err := validator.Apply(
			validator.RequiredString("name", d.Name),
			validator.Email("email", d.Email),
			validator.RequiredString("message", strings.TrimSpace(d.Message)),
			validator.Custom("message", len([]rune(d.Message)) <= maxMessageLen,
				"must be at most 2000 characters long", "validation.max_length"),
		); err != nil {
			return nil, err
		}

		p := record.FromPairs(
			"name", d.Name,
			"email", d.Email,
			"subject", d.Subject,
			"message", d.Message,
			"status", "Unread",
			"date", s.now().UTC().Format(time.RFC3339),
		)
		id, err := s.store.Create(ctx, collection, p)
		if err != nil {
			return nil, err
		}

		stored := notify.Message{ID: id, Name: d.Name, Email: d.Email, Subject: d.Subject, Body: d.Message}
		if err := s.notifier.MessageReceived(ctx, stored); err != nil {
			s.log.WarnContext(ctx, "message notification failed",
				slog.String("message_id", id),
				slog.Any("error", err))
		}
		return created{ID: id}, nil
	}
}

func (s *Service) messageStatus(collection string) handlerFunc {
	statuses := []string{"Unread", "Read", "Replied", "Archived"}
	return func(ctx context.Context, req Request) (any, error) {
		id := req.targetID()
		if id == "" {
			return nil, ErrMissingID
		}
		var d struct {
			Status string `json:"status"`
		}
		if err := req.decode(&d); err != nil {
			return nil, err
		}
		if err := validator.Apply(validator.OneOf("status", d.Status, statuses...)); err != nil {
			return nil, err
		}
		return nil, s.store.Update(ctx, collection, id, record.FromPairs("status", d.Status))
	}
}

type uploadRequest struct {
	Name     string `json:"name"`
	MimeType string `json:"mimeType"`
	Data     string `json:"data"`
}

func (s *Service) uploadFile(ctx context.Context, req Request) (any, error) {
	var d uploadRequest
	if err := req.decode(&d); err != nil {
		return nil, err
	}
	u, err := blob.Decode(d.Name, d.MimeType, d.Data)
	if err != nil {
		return nil, err
	}
	if err := blob.Validate(u, s.limits); err != nil {
		return nil, err
	}
	obj, err := s.blobs.Put(ctx, u)
	if err != nil {
		return nil, err
	}
	s.log.InfoContext(ctx, "file uploaded",
		slog.String("key", obj.Key),
		slog.Int64("size", obj.Size),
		slog.String("content_type", obj.ContentType))
	return obj, nil
}

func (s *Service) changePassword(ctx context.Context, req Request) (any, error) {
	var d struct {
		NewPassword string `json:"newPassword"`
	}
	if err := req.decode(&d); err != nil {
		return nil, err
	}
	return nil, s.auth.ChangePassword(ctx, d.NewPassword)
}
