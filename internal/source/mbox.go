package source

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/emersion/go-message"
	_ "github.com/emersion/go-message/charset"
	"github.com/emersion/go-message/mail"
	mboxlib "github.com/emersion/go-mbox"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xaenox/mailtime/internal/models"
)

// ReadMboxFile opens path and reads it with ReadMbox.
func ReadMboxFile(ctx context.Context, path string, logger *zap.Logger) ([]models.Envelope, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("mbox path is empty")
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open mbox: %w", err)
	}
	defer file.Close()

	return ReadMbox(ctx, file, logger)
}

// ReadMbox splits an mbox stream into messages. A message that cannot be
// parsed becomes an Envelope carrying the error and reading continues; a
// broken mbox stream ends the read with a final error Envelope.
func ReadMbox(ctx context.Context, r io.Reader, logger *zap.Logger) ([]models.Envelope, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	reader := mboxlib.NewReader(r)
	var out []models.Envelope

	for idx := 0; ; idx++ {
		if err := ctx.Err(); err != nil {
			return out, err
		}

		msgReader, err := reader.NextMessage()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return out, nil
			}
			logger.Error("mbox stream error", zap.Int("index", idx), zap.Error(err))
			return append(out, models.Envelope{Err: fmt.Errorf("message %d: %w", idx, err)}), nil
		}

		raw, err := io.ReadAll(msgReader)
		if err != nil {
			logger.Error("mbox read error", zap.Int("index", idx), zap.Error(err))
			return append(out, models.Envelope{Err: fmt.Errorf("message %d read: %w", idx, err)}), nil
		}

		msg, err := parseMail(raw)
		if err != nil {
			logger.Warn("Skipping unparsable message", zap.Int("index", idx), zap.Error(err))
			out = append(out, models.Envelope{Err: fmt.Errorf("message %d parse: %w", idx, err)})
			continue
		}
		out = append(out, models.Envelope{Message: msg})
	}
}

func parseMail(raw []byte) (*models.Message, error) {
	mr, err := mail.CreateReader(bytes.NewReader(raw))
	if err != nil && !message.IsUnknownCharset(err) {
		return nil, err
	}
	defer mr.Close()

	msg := &models.Message{}

	subject, _ := mr.Header.Subject()
	msg.Subject = strings.ToValidUTF8(subject, "\uFFFD")
	if id, _ := mr.Header.MessageID(); id != "" {
		msg.ID = id
	} else {
		msg.ID = uuid.NewString()
	}
	if date, err := mr.Header.Date(); err == nil {
		msg.ReceivedAt = date
	}
	if from, err := mr.Header.AddressList("From"); err == nil && len(from) > 0 {
		msg.Sender = from[0].Address
	} else {
		msg.Sender = strings.TrimSpace(mr.Header.Get("From"))
	}

	var plain, html string
	for {
		p, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil && !message.IsUnknownCharset(err) {
			return nil, fmt.Errorf("read part: %w", err)
		}
		if p == nil {
			continue
		}

		h, ok := p.Header.(*mail.InlineHeader)
		if !ok {
			continue
		}
		ct, _, _ := h.ContentType()
		switch {
		case plain == "" && (ct == "" || ct == "text/plain"):
			b, err := io.ReadAll(p.Body)
			if err != nil {
				return nil, fmt.Errorf("read text part: %w", err)
			}
			plain = strings.ToValidUTF8(string(b), "\uFFFD")
		case html == "" && ct == "text/html":
			text, err := htmlToText(p.Body)
			if err != nil {
				return nil, fmt.Errorf("read html part: %w", err)
			}
			html = text
		}
	}

	msg.Body = plain
	if strings.TrimSpace(msg.Body) == "" {
		msg.Body = html
	}
	if err := msg.Validate(); err != nil {
		return nil, err
	}
	return msg, nil
}

// htmlToText drops markup, scripts and styles and collapses whitespace.
func htmlToText(r io.Reader) (string, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return "", err
	}
	doc.Find("script, style, head").Remove()
	text := strings.Join(strings.Fields(doc.Text()), " ")
	return strings.ToValidUTF8(text, "\uFFFD"), nil
}
