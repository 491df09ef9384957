package sink

import (
	"context"
	"log/slog"
	"mcserve/domain/event"
	"time"

	"github.com/blugelabs/bluge"
)

const (
	fieldText = "text"
	fieldWho  = "who"
	fieldAt   = "at"
)

// ChatHit is one chat message matching a search.
type ChatHit struct {
	ID    string    `json:"id"`
	Who   string    `json:"who"`
	Text  string    `json:"text"`
	At    time.Time `json:"at"`
	Score float64   `json:"score"`
}

// ChatIndex indexes chat messages for full-text search. Other events are ignored.
type ChatIndex struct {
	writer *bluge.Writer
	log    *slog.Logger
}

func NewChatIndex(writer *bluge.Writer, log *slog.Logger) *ChatIndex {
	return &ChatIndex{writer: writer, log: log}
}

func (c *ChatIndex) Consume(ctx context.Context, e event.DomainEvent) error {
	chat, ok := e.(event.ChatPosted)
	if !ok {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	doc := bluge.NewDocument(chat.ID.String()).
		AddField(bluge.NewTextField(fieldText, chat.Text).StoreValue()).
		AddField(bluge.NewKeywordField(fieldWho, chat.Who).StoreValue()).
		AddField(bluge.NewDateTimeField(fieldAt, chat.At).StoreValue().Sortable())
	return c.writer.Update(doc.ID(), doc)
}

// Search returns at most limit messages matching q, most recent first.
func (c *ChatIndex) Search(ctx context.Context, q string, limit int) ([]ChatHit, error) {
	if q == "" || limit <= 0 {
		return nil, nil
	}
	reader, err := c.writer.Reader()
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := reader.Close(); err != nil {
			c.log.Warn("Error while closing index reader", "error", err)
		}
	}()

	query := bluge.NewMatchQuery(q).SetField(fieldText)
	request := bluge.NewTopNSearch(limit, query).SortBy([]string{"-" + fieldAt})
	matches, err := reader.Search(ctx, request)
	if err != nil {
		return nil, err
	}

	var hits []ChatHit
	match, err := matches.Next()
	for err == nil && match != nil {
		hit := ChatHit{Score: match.Score}
		var decodeErr error
		err = match.VisitStoredFields(func(field string, value []byte) bool {
			switch field {
			case "_id":
				hit.ID = string(value)
			case fieldText:
				hit.Text = string(value)
			case fieldWho:
				hit.Who = string(value)
			case fieldAt:
				hit.At, decodeErr = bluge.DecodeDateTime(value)
			}
			return decodeErr == nil
		})
		if err == nil {
			err = decodeErr
		}
		if err != nil {
			return nil, err
		}
		hits = append(hits, hit)
		match, err = matches.Next()
	}
	return hits, err
}
