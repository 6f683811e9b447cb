package domain

import "time"

// OptionCount is the fixed number of options on every question.
const OptionCount = 4

// User is a registered identity. PasswordHash never leaves the service layer.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email,omitempty"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Room is a quiz container identified by a unique code and owned by its creator.
type Room struct {
	ID               string    `json:"id"`
	Code             string    `json:"roomCode"`
	CreatorID        string    `json:"creatorUserId"`
	TimeLimitMinutes *int      `json:"timeLimitMinutes,omitempty"`
	CreatedAt        time.Time `json:"createdAt"`
}

// Question models an MCQ question. Sequence is the 1-based position inside its room.
type Question struct {
	ID            string    `json:"id"`
	RoomID        string    `json:"roomId"`
	Sequence      int       `json:"sequenceNumber"`
	Text          string    `json:"text"`
	Options       []string  `json:"options"`
	CorrectAnswer string    `json:"correctAnswer"`
	CreatedAt     time.Time `json:"createdAt"`
}

// QuestionPatch carries a partial update; nil fields are left untouched.
type QuestionPatch struct {
	Text          *string
	Options       []string
	CorrectAnswer *string
}

// Apply returns a copy of q with the patch merged in.
func (p QuestionPatch) Apply(q Question) Question {
	if p.Text != nil {
		q.Text = *p.Text
	}
	if p.Options != nil {
		q.Options = append([]string(nil), p.Options...)
	}
	if p.CorrectAnswer != nil {
		q.CorrectAnswer = *p.CorrectAnswer
	}
	return q
}

// PublicQuestion is the answer-free view served on public reads.
type PublicQuestion struct {
	Sequence int      `json:"sequenceNumber"`
	Text     string   `json:"text"`
	Options  []string `json:"options"`
}

// Public strips the answer key.
func (q Question) Public() PublicQuestion {
	return PublicQuestion{
		Sequence: q.Sequence,
		Text:     q.Text,
		Options:  append([]string(nil), q.Options...),
	}
}

// PublicRoom is a catalog entry: room metadata plus its answer-free questions.
type PublicRoom struct {
	Room
	Questions []PublicQuestion `json:"questions"`
}

// RoomWithQuestions is the authenticated quiz-taking view; answers are included.
type RoomWithQuestions struct {
	Room      Room       `json:"room"`
	Questions []Question `json:"questions"`
}

// Result is an immutable record of one quiz attempt. UserName is free text;
// UserID is only set when the submitter presented a valid token.
type Result struct {
	ID             string    `json:"id"`
	UserName       string    `json:"userName"`
	UserID         string    `json:"userId,omitempty"`
	RoomID         string    `json:"roomId"`
	Score          int       `json:"score"`
	TotalQuestions int       `json:"totalQuestions"`
	Timestamp      time.Time `json:"timestamp"`
}

// Leaderboard is a ranked snapshot of the top results.
type Leaderboard struct {
	Entries   []Result  `json:"entries"`
	UpdatedAt time.Time `json:"updatedAt"`
}
