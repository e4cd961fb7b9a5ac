// Package dto holds request bodies for the record endpoints. Patch bodies use
// pointer fields so that absent and empty can be told apart.
package dto

import (
	"strings"

	"github.com/thereayou/lovenest/internal/models"
)

// Patch collects the columns a partial update will write.
type Patch map[string]any

func (p Patch) setString(column string, v *string, trim bool) {
	if v == nil {
		return
	}
	s := *v
	if trim {
		s = strings.TrimSpace(s)
	}
	p[column] = s
}

func (p Patch) setOptional(column string, v *string) {
	if v == nil {
		return
	}
	if s := strings.TrimSpace(*v); s != "" {
		p[column] = s
		return
	}
	p[column] = nil
}

// Empty reports whether a trimmed required column ended up blank.
func (p Patch) Empty(columns ...string) string {
	for _, c := range columns {
		if s, ok := p[c].(string); ok && s == "" {
			return c
		}
	}
	return ""
}

type SendMessageRequest struct {
	Message    string `json:"message" binding:"required,max=4000"`
	SenderName string `json:"sender_name" binding:"max=100"`
}

type CreateLetterRequest struct {
	FromName string `json:"from_name" binding:"max=100"`
	Subject  string `json:"subject" binding:"required,max=200"`
	Content  string `json:"content" binding:"required"`
}

type UpdateLetterRequest struct {
	FromName *string `json:"from_name" binding:"omitempty,max=100"`
	Subject  *string `json:"subject" binding:"omitempty,max=200"`
	Content  *string `json:"content"`
}

func (r UpdateLetterRequest) Patch() Patch {
	p := Patch{}
	p.setString("from_name", r.FromName, true)
	p.setString("subject", r.Subject, true)
	p.setString("content", r.Content, false)
	return p
}

type CreateMemoryRequest struct {
	Title      string  `json:"title" binding:"required,max=200"`
	MemoryDate string  `json:"memory_date" binding:"required,datetime=2006-01-02"`
	Place      *string `json:"place" binding:"omitempty,max=200"`
	Emotion    string  `json:"emotion" binding:"max=50"`
	Note       *string `json:"note"`
	ImageURL   *string `json:"image_url" binding:"omitempty,url"`
}

type UpdateMemoryRequest struct {
	Title      *string `json:"title" binding:"omitempty,max=200"`
	MemoryDate *string `json:"memory_date" binding:"omitempty,datetime=2006-01-02"`
	Place      *string `json:"place" binding:"omitempty,max=200"`
	Emotion    *string `json:"emotion" binding:"omitempty,max=50"`
	Note       *string `json:"note"`
	ImageURL   *string `json:"image_url"`
}

func (r UpdateMemoryRequest) Patch() Patch {
	p := Patch{}
	p.setString("title", r.Title, true)
	p.setString("memory_date", r.MemoryDate, true)
	p.setOptional("place", r.Place)
	p.setString("emotion", r.Emotion, true)
	p.setOptional("note", r.Note)
	p.setOptional("image_url", r.ImageURL)
	return p
}

type CreateStoryEventRequest struct {
	EventDate   string `json:"event_date" binding:"required,datetime=2006-01-02"`
	Title       string `json:"title" binding:"required,max=200"`
	Description string `json:"description" binding:"required"`
	Milestone   bool   `json:"milestone"`
}

type UpdateStoryEventRequest struct {
	EventDate   *string `json:"event_date" binding:"omitempty,datetime=2006-01-02"`
	Title       *string `json:"title" binding:"omitempty,max=200"`
	Description *string `json:"description"`
	Milestone   *bool   `json:"milestone"`
}

func (r UpdateStoryEventRequest) Patch() Patch {
	p := Patch{}
	p.setString("event_date", r.EventDate, true)
	p.setString("title", r.Title, true)
	p.setString("description", r.Description, false)
	if r.Milestone != nil {
		p["milestone"] = *r.Milestone
	}
	return p
}

type SendBouquetRequest struct {
	Flowers    models.Flowers `json:"flowers" binding:"required"`
	Message    *string        `json:"message" binding:"omitempty,max=500"`
	SenderName string         `json:"sender_name" binding:"max=100"`
}

type CreateWishRequest struct {
	Title    string              `json:"title" binding:"required,max=200"`
	Category models.WishCategory `json:"category"`
	Note     *string             `json:"note"`
}

type UpdateWishRequest struct {
	Title    *string              `json:"title" binding:"omitempty,max=200"`
	Category *models.WishCategory `json:"category"`
	Note     *string              `json:"note"`
}

func (r UpdateWishRequest) Patch() Patch {
	p := Patch{}
	p.setString("title", r.Title, true)
	if r.Category != nil {
		p["category"] = *r.Category
	}
	p.setOptional("note", r.Note)
	return p
}

type UpdateProfileRequest struct {
	FullName  string  `json:"full_name" binding:"required,max=100"`
	AvatarURL *string `json:"avatar_url"`
}
