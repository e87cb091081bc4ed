package course

import (
	"time"

	"github.com/google/uuid"
)

// Note is a study annotation attached to a course, optionally pinned to one
// video and a timestamp inside it.
type Note struct {
	ID        string    `json:"id"`
	CourseID  string    `json:"course_id"`
	VideoID   *int      `json:"video_id,omitempty"`
	Content   string    `json:"content"`
	Timestamp *float64  `json:"timestamp,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Tags      []string  `json:"tags"`
}

// NewNote creates a course level note.
func NewNote(courseID, content string) Note {
	now := time.Now().UTC()
	return Note{
		ID:        uuid.NewString(),
		CourseID:  courseID,
		Content:   content,
		CreatedAt: now,
		UpdatedAt: now,
		Tags:      []string{},
	}
}

// NewVideoNote creates a note pinned to a video, optionally at a timestamp
// in seconds.
func NewVideoNote(courseID string, videoID int, content string, timestamp *float64) Note {
	n := NewNote(courseID, content)
	n.VideoID = &videoID
	n.Timestamp = timestamp
	return n
}

// HasTag reports whether the note carries the tag.
func (n *Note) HasTag(tag string) bool {
	for _, t := range n.Tags {
		if t == tag {
			return true
		}
	}
	return false
}
