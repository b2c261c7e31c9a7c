package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/anzway/learnterm/internal/catalog"
)

// StartResult is the backend's answer to a session-start request.
type StartResult struct {
	SessionID string
	Reply     string
	Questions []string
	AudioURL  string
}

// TurnResult is the backend's answer to one text turn.
type TurnResult struct {
	Reply         string
	Passed        bool
	PassedItem    string
	StudentAnswer string
	CorrectAnswer string
	Evaluation    string
}

// AudioTurnResult is the backend's answer to one recorded-audio turn.
type AudioTurnResult struct {
	Reply    string
	AudioURL string
}

// AudioStatus reports whether server-side audio generation has finished.
type AudioStatus struct {
	Ready       bool
	AudioBase64 string
}

// FinishResult carries the backend's confirmation message.
type FinishResult struct {
	Message string
}

// wireParam maps selector level names onto the session endpoints' field
// names where they differ: the selected question travels as question_text.
func wireParam(name string) string {
	if name == "question" {
		return "question_text"
	}
	return name
}

// StartSession opens a tutoring session for the fully-resolved selection.
// The resolved hierarchy values are flattened into the request body along
// with the student identity.
func (c *Client) StartSession(ctx context.Context, params []catalog.Param) (*StartResult, error) {
	body := map[string]any{
		"username": c.username,
	}
	if c.userID != "" {
		body["id"] = c.userID
	}
	for _, p := range params {
		body[wireParam(p.Name)] = p.Value
	}

	var raw json.RawMessage
	if err := c.postJSON(ctx, "/sessions", body, &raw); err != nil {
		return nil, err
	}
	if err := validateResponse("session-start", raw); err != nil {
		return nil, err
	}

	var wire struct {
		SessionID string   `json:"session_id"`
		Reply     string   `json:"reply"`
		Message   string   `json:"message"`
		TextReply string   `json:"text_reply"`
		Questions []string `json:"questions"`
		AudioURL  string   `json:"audio_url"`
	}
	if err := json.Unmarshal(raw, &wire); err != nil {
		return nil, &DecodeError{Err: err}
	}

	reply := wire.Reply
	if reply == "" {
		reply = wire.TextReply
	}
	if reply == "" {
		reply = wire.Message
	}
	return &StartResult{
		SessionID: wire.SessionID,
		Reply:     reply,
		Questions: wire.Questions,
		AudioURL:  wire.AudioURL,
	}, nil
}

// SendTurn submits one student message for the given session. first flags
// the opening turn so the backend can include its scene-setting preamble.
func (c *Client) SendTurn(ctx context.Context, sessionID, message string, first bool) (*TurnResult, error) {
	body := map[string]any{
		"session_id":    sessionID,
		"message":       message,
		"first_message": first,
	}

	var raw json.RawMessage
	if err := c.postJSON(ctx, "/sessions/turn", body, &raw); err != nil {
		return nil, err
	}
	if err := validateResponse("session-turn", raw); err != nil {
		return nil, err
	}

	var wire struct {
		Reply         string `json:"reply"`
		Passed        bool   `json:"passed"`
		QuestionText  string `json:"question_text"`
		StudentAnswer string `json:"student_answer"`
		CorrectAnswer string `json:"correct_answer"`
		Evaluation    string `json:"evaluation"`
	}
	if err := json.Unmarshal(raw, &wire); err != nil {
		return nil, &DecodeError{Err: err}
	}
	return &TurnResult{
		Reply:         wire.Reply,
		Passed:        wire.Passed,
		PassedItem:    wire.QuestionText,
		StudentAnswer: wire.StudentAnswer,
		CorrectAnswer: wire.CorrectAnswer,
		Evaluation:    wire.Evaluation,
	}, nil
}

// SendAudioTurn uploads one recorded utterance for the given session.
func (c *Client) SendAudioTurn(ctx context.Context, sessionID string, audio []byte) (*AudioTurnResult, error) {
	fields := map[string]string{
		"session_id": sessionID,
		"username":   c.username,
	}
	if c.userID != "" {
		fields["id"] = c.userID
	}

	var wire struct {
		Reply    string `json:"reply"`
		AudioURL string `json:"audio_url"`
	}
	if err := c.postMultipart(ctx, "/sessions/audio", fields, "audio", "recording.webm", audio, &wire); err != nil {
		return nil, err
	}
	return &AudioTurnResult{Reply: wire.Reply, AudioURL: wire.AudioURL}, nil
}

// GetAudioStatus asks whether the session's generated audio is ready.
func (c *Client) GetAudioStatus(ctx context.Context, sessionID string) (*AudioStatus, error) {
	var wire struct {
		AudioReady  bool   `json:"audio_ready"`
		AudioBase64 string `json:"audio_base64"`
	}
	if err := c.getJSON(ctx, "/sessions/"+url.PathEscape(sessionID)+"/audio", nil, &wire); err != nil {
		return nil, err
	}
	return &AudioStatus{Ready: wire.AudioReady, AudioBase64: wire.AudioBase64}, nil
}

// FinishSession closes the session. The resolved hierarchy values and any
// summary fields ride along for the backend's record keeping.
func (c *Client) FinishSession(ctx context.Context, sessionID string, params []catalog.Param, summary map[string]any) (*FinishResult, error) {
	body := map[string]any{
		"session_id": sessionID,
		"username":   c.username,
	}
	if c.userID != "" {
		body["id"] = c.userID
	}
	for _, p := range params {
		body[wireParam(p.Name)] = p.Value
	}
	for k, v := range summary {
		body[k] = v
	}

	var wire struct {
		Message string `json:"message"`
	}
	if err := c.postJSON(ctx, "/sessions/finish", body, &wire); err != nil {
		return nil, err
	}
	return &FinishResult{Message: wire.Message}, nil
}

// CheckAccess asks whether the student is still within their usage limit.
func (c *Client) CheckAccess(ctx context.Context) (bool, error) {
	query := url.Values{}
	query.Set("username", c.username)

	var wire struct {
		AccessAllowed bool `json:"access_allowed"`
	}
	if err := c.getJSON(ctx, "/check-access", query, &wire); err != nil {
		return false, err
	}
	return wire.AccessAllowed, nil
}

// PreparedChapters fetches the chapters the student has already covered well
// for a subject.
func (c *Client) PreparedChapters(ctx context.Context, subject string) ([]string, error) {
	body := map[string]any{
		"username": c.username,
		"subject":  subject,
	}
	if c.userID != "" {
		body["student_id"] = c.userID
	}

	var raw json.RawMessage
	if err := c.postJSON(ctx, "/reports/prepared", body, &raw); err != nil {
		return nil, err
	}
	return chapterValues(raw)
}

// SyllabusChapters fetches the full chapter list for a subject.
func (c *Client) SyllabusChapters(ctx context.Context, subject string) ([]string, error) {
	var raw json.RawMessage
	if err := c.postJSON(ctx, "/syllabus", map[string]any{"subject": subject}, &raw); err != nil {
		return nil, err
	}
	return chapterValues(raw)
}

// chapterValues accepts both bare string arrays and arrays of objects
// carrying a chapter (or legacy pdf_name) field.
func chapterValues(raw json.RawMessage) ([]string, error) {
	var names []string
	if err := json.Unmarshal(raw, &names); err == nil {
		return names, nil
	}

	var rows []struct {
		Chapter string `json:"chapter"`
		PDFName string `json:"pdf_name"`
	}
	if err := json.Unmarshal(raw, &rows); err != nil {
		return nil, &DecodeError{Err: fmt.Errorf("unrecognized report shape: %w", err)}
	}
	names = make([]string, 0, len(rows))
	for _, r := range rows {
		name := r.Chapter
		if name == "" {
			name = r.PDFName
		}
		names = append(names, name)
	}
	return names, nil
}
