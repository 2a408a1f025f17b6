package sqlite

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/agentdesk/backend/internal/storage/models"
	"github.com/agentdesk/backend/pkg/logger"
)

type Client struct {
	db *sql.DB
}

func NewClient(dbPath string) (*Client, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	_, err = db.Exec("PRAGMA foreign_keys = ON")
	if err != nil {
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	_, err = db.Exec("PRAGMA journal_mode = WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	logger.Info("SQLite client initialized", zap.String("path", dbPath))

	return &Client{db: db}, nil
}

func (c *Client) Close() error {
	return c.db.Close()
}

func (c *Client) Ping() error {
	return c.db.Ping()
}

func (c *Client) InitSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS domains (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL UNIQUE,
		description TEXT,
		created_at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS agents (
		id TEXT PRIMARY KEY,
		domain_id TEXT NOT NULL,
		name TEXT NOT NULL,
		description TEXT,
		version INTEGER NOT NULL DEFAULT 1,
		status TEXT NOT NULL DEFAULT 'draft',
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL,
		FOREIGN KEY (domain_id) REFERENCES domains(id) ON DELETE CASCADE
	);
	CREATE INDEX IF NOT EXISTS idx_agents_domain ON agents(domain_id);
	CREATE INDEX IF NOT EXISTS idx_agents_status ON agents(status);

	CREATE TABLE IF NOT EXISTS questions (
		id TEXT PRIMARY KEY,
		agent_id TEXT NOT NULL,
		text TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'draft',
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL,
		FOREIGN KEY (agent_id) REFERENCES agents(id) ON DELETE CASCADE
	);
	CREATE INDEX IF NOT EXISTS idx_questions_agent ON questions(agent_id);
	CREATE INDEX IF NOT EXISTS idx_questions_status ON questions(status);

	CREATE TABLE IF NOT EXISTS answers (
		id TEXT PRIMARY KEY,
		question_id TEXT NOT NULL UNIQUE,
		text TEXT NOT NULL,
		html TEXT,
		status TEXT NOT NULL DEFAULT 'draft',
		FOREIGN KEY (question_id) REFERENCES questions(id) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS question_variants (
		id TEXT PRIMARY KEY,
		question_id TEXT NOT NULL,
		variant_text TEXT NOT NULL,
		technique TEXT,
		confidence REAL,
		is_approved INTEGER NOT NULL DEFAULT 1,
		FOREIGN KEY (question_id) REFERENCES questions(id) ON DELETE CASCADE
	);
	CREATE INDEX IF NOT EXISTS idx_qvariants_question ON question_variants(question_id);

	CREATE TABLE IF NOT EXISTS answer_variants (
		id TEXT PRIMARY KEY,
		answer_id TEXT NOT NULL,
		variant_text TEXT NOT NULL,
		variant_html TEXT,
		technique TEXT,
		confidence REAL,
		is_approved INTEGER NOT NULL DEFAULT 1,
		FOREIGN KEY (answer_id) REFERENCES answers(id) ON DELETE CASCADE
	);
	CREATE INDEX IF NOT EXISTS idx_avariants_answer ON answer_variants(answer_id);

	CREATE TABLE IF NOT EXISTS chat_sessions (
		id TEXT PRIMARY KEY,
		agent_id TEXT NOT NULL,
		visitor_id TEXT,
		message_count INTEGER NOT NULL DEFAULT 0,
		created_at INTEGER NOT NULL,
		last_active_at INTEGER NOT NULL,
		FOREIGN KEY (agent_id) REFERENCES agents(id) ON DELETE CASCADE
	);
	CREATE INDEX IF NOT EXISTS idx_sessions_agent ON chat_sessions(agent_id);

	CREATE TABLE IF NOT EXISTS chat_messages (
		id TEXT PRIMARY KEY,
		session_id TEXT NOT NULL,
		sender TEXT NOT NULL,
		text TEXT NOT NULL,
		html TEXT,
		question_id TEXT,
		answer_id TEXT,
		score REAL,
		created_at INTEGER NOT NULL,
		FOREIGN KEY (session_id) REFERENCES chat_sessions(id) ON DELETE CASCADE
	);
	CREATE INDEX IF NOT EXISTS idx_messages_session ON chat_messages(session_id);
	CREATE INDEX IF NOT EXISTS idx_messages_created ON chat_messages(created_at);

	CREATE TABLE IF NOT EXISTS audit_log (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		actor TEXT,
		action TEXT NOT NULL,
		entity_type TEXT NOT NULL,
		entity_id TEXT,
		detail TEXT,
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_audit_entity ON audit_log(entity_type, entity_id);
	CREATE INDEX IF NOT EXISTS idx_audit_created ON audit_log(created_at);
	`

	_, err := c.db.Exec(schema)
	if err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}

	logger.Info("SQLite schema initialized")
	return nil
}

func (c *Client) CreateDomain(d *models.Domain) error {
	query := `INSERT INTO domains (id, name, description, created_at) VALUES (?, ?, ?, ?)`

	_, err := c.db.Exec(query, d.ID, d.Name, d.Description, d.CreatedAt.Unix())
	if err != nil {
		return fmt.Errorf("failed to insert domain: %w", err)
	}

	return nil
}

func (c *Client) ListDomains() ([]models.Domain, error) {
	query := `SELECT id, name, description, created_at FROM domains ORDER BY name`

	rows, err := c.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to list domains: %w", err)
	}
	defer rows.Close()

	var domains []models.Domain
	for rows.Next() {
		var d models.Domain
		var createdAt int64

		err := rows.Scan(&d.ID, &d.Name, &d.Description, &createdAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		d.CreatedAt = time.Unix(createdAt, 0)
		domains = append(domains, d)
	}

	return domains, nil
}

func (c *Client) CreateAgent(a *models.Agent) error {
	query := `
		INSERT INTO agents (id, domain_id, name, description, version, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := c.db.Exec(
		query,
		a.ID,
		a.DomainID,
		a.Name,
		a.Description,
		a.Version,
		a.Status,
		a.CreatedAt.Unix(),
		a.UpdatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert agent: %w", err)
	}

	return nil
}

func (c *Client) GetAgent(id string) (*models.Agent, error) {
	query := `SELECT id, domain_id, name, description, version, status, created_at, updated_at FROM agents WHERE id = ?`

	var a models.Agent
	var createdAt, updatedAt int64

	err := c.db.QueryRow(query, id).Scan(
		&a.ID,
		&a.DomainID,
		&a.Name,
		&a.Description,
		&a.Version,
		&a.Status,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get agent: %w", err)
	}

	a.CreatedAt = time.Unix(createdAt, 0)
	a.UpdatedAt = time.Unix(updatedAt, 0)

	return &a, nil
}

func (c *Client) ListAgents(domainID string) ([]models.Agent, error) {
	query := `SELECT id, domain_id, name, description, version, status, created_at, updated_at FROM agents`
	args := []interface{}{}

	if domainID != "" {
		query += ` WHERE domain_id = ?`
		args = append(args, domainID)
	}
	query += ` ORDER BY name`

	rows, err := c.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list agents: %w", err)
	}
	defer rows.Close()

	var agents []models.Agent
	for rows.Next() {
		var a models.Agent
		var createdAt, updatedAt int64

		err := rows.Scan(&a.ID, &a.DomainID, &a.Name, &a.Description, &a.Version, &a.Status, &createdAt, &updatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		a.CreatedAt = time.Unix(createdAt, 0)
		a.UpdatedAt = time.Unix(updatedAt, 0)
		agents = append(agents, a)
	}

	return agents, nil
}

func (c *Client) UpdateAgentStatus(id, status string) error {
	query := `UPDATE agents SET status = ?, version = version + 1, updated_at = ? WHERE id = ?`

	result, err := c.db.Exec(query, status, time.Now().Unix(), id)
	if err != nil {
		return fmt.Errorf("failed to update agent status: %w", err)
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		return fmt.Errorf("agent not found: %s", id)
	}

	return nil
}

// CreateQuestion inserts the question, its answer and both freshly generated
// variant sets in one transaction so partial content is never visible.
func (c *Client) CreateQuestion(q *models.Question, a *models.Answer, qVariants []models.QuestionVariant, aVariants []models.AnswerVariant) error {
	tx, err := c.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		`INSERT INTO questions (id, agent_id, text, status, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`,
		q.ID, q.AgentID, q.Text, q.Status, q.CreatedAt.Unix(), q.UpdatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert question: %w", err)
	}

	_, err = tx.Exec(
		`INSERT INTO answers (id, question_id, text, html, status) VALUES (?, ?, ?, ?, ?)`,
		a.ID, a.QuestionID, a.Text, a.HTML, a.Status,
	)
	if err != nil {
		return fmt.Errorf("failed to insert answer: %w", err)
	}

	if err := insertVariants(tx, qVariants, aVariants); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	logger.Debug("Question created",
		zap.String("question_id", q.ID),
		zap.Int("question_variants", len(qVariants)),
		zap.Int("answer_variants", len(aVariants)),
	)

	return nil
}

// UpdateQuestion rewrites the source texts and fully replaces both variant
// sets. The old sets are deleted in the same transaction; a stale set is
// never observable.
func (c *Client) UpdateQuestion(questionID, questionText, answerText, answerHTML string, qVariants []models.QuestionVariant, aVariants []models.AnswerVariant) error {
	tx, err := c.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.Exec(
		`UPDATE questions SET text = ?, updated_at = ? WHERE id = ?`,
		questionText, time.Now().Unix(), questionID,
	)
	if err != nil {
		return fmt.Errorf("failed to update question: %w", err)
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		return fmt.Errorf("question not found: %s", questionID)
	}

	_, err = tx.Exec(
		`UPDATE answers SET text = ?, html = ? WHERE question_id = ?`,
		answerText, answerHTML, questionID,
	)
	if err != nil {
		return fmt.Errorf("failed to update answer: %w", err)
	}

	_, err = tx.Exec(`DELETE FROM question_variants WHERE question_id = ?`, questionID)
	if err != nil {
		return fmt.Errorf("failed to delete question variants: %w", err)
	}

	_, err = tx.Exec(
		`DELETE FROM answer_variants WHERE answer_id IN (SELECT id FROM answers WHERE question_id = ?)`,
		questionID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete answer variants: %w", err)
	}

	if err := insertVariants(tx, qVariants, aVariants); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	logger.Debug("Question updated",
		zap.String("question_id", questionID),
		zap.Int("question_variants", len(qVariants)),
		zap.Int("answer_variants", len(aVariants)),
	)

	return nil
}

func insertVariants(tx *sql.Tx, qVariants []models.QuestionVariant, aVariants []models.AnswerVariant) error {
	for _, v := range qVariants {
		_, err := tx.Exec(
			`INSERT INTO question_variants (id, question_id, variant_text, technique, confidence, is_approved) VALUES (?, ?, ?, ?, ?, ?)`,
			v.ID, v.QuestionID, v.VariantText, v.Technique, v.Confidence, boolToInt(v.IsApproved),
		)
		if err != nil {
			return fmt.Errorf("failed to insert question variant: %w", err)
		}
	}

	for _, v := range aVariants {
		_, err := tx.Exec(
			`INSERT INTO answer_variants (id, answer_id, variant_text, variant_html, technique, confidence, is_approved) VALUES (?, ?, ?, ?, ?, ?, ?)`,
			v.ID, v.AnswerID, v.VariantText, v.VariantHTML, v.Technique, v.Confidence, boolToInt(v.IsApproved),
		)
		if err != nil {
			return fmt.Errorf("failed to insert answer variant: %w", err)
		}
	}

	return nil
}

// SetQuestionStatus toggles the question and its answer together. The two
// rows never carry different statuses.
func (c *Client) SetQuestionStatus(questionID, status string) error {
	tx, err := c.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.Exec(
		`UPDATE questions SET status = ?, updated_at = ? WHERE id = ?`,
		status, time.Now().Unix(), questionID,
	)
	if err != nil {
		return fmt.Errorf("failed to update question status: %w", err)
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		return fmt.Errorf("question not found: %s", questionID)
	}

	_, err = tx.Exec(`UPDATE answers SET status = ? WHERE question_id = ?`, status, questionID)
	if err != nil {
		return fmt.Errorf("failed to update answer status: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

func (c *Client) GetQuestion(id string) (*models.Question, error) {
	var q models.Question
	var createdAt, updatedAt int64

	err := c.db.QueryRow(
		`SELECT id, agent_id, text, status, created_at, updated_at FROM questions WHERE id = ?`, id,
	).Scan(&q.ID, &q.AgentID, &q.Text, &q.Status, &createdAt, &updatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to get question: %w", err)
	}

	q.CreatedAt = time.Unix(createdAt, 0)
	q.UpdatedAt = time.Unix(updatedAt, 0)

	var a models.Answer
	err = c.db.QueryRow(
		`SELECT id, question_id, text, html, status FROM answers WHERE question_id = ?`, id,
	).Scan(&a.ID, &a.QuestionID, &a.Text, &a.HTML, &a.Status)
	if err != nil {
		return nil, fmt.Errorf("failed to get answer: %w", err)
	}

	q.Variants, err = c.listQuestionVariants(id, false)
	if err != nil {
		return nil, err
	}

	a.Variants, err = c.listAnswerVariants(a.ID, false)
	if err != nil {
		return nil, err
	}

	q.Answer = &a
	return &q, nil
}

func (c *Client) listQuestionVariants(questionID string, approvedOnly bool) ([]models.QuestionVariant, error) {
	query := `SELECT id, question_id, variant_text, technique, confidence, is_approved FROM question_variants WHERE question_id = ?`
	if approvedOnly {
		query += ` AND is_approved = 1`
	}

	rows, err := c.db.Query(query, questionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list question variants: %w", err)
	}
	defer rows.Close()

	var variants []models.QuestionVariant
	for rows.Next() {
		var v models.QuestionVariant
		var approved int

		err := rows.Scan(&v.ID, &v.QuestionID, &v.VariantText, &v.Technique, &v.Confidence, &approved)
		if err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		v.IsApproved = approved == 1
		variants = append(variants, v)
	}

	return variants, nil
}

func (c *Client) listAnswerVariants(answerID string, approvedOnly bool) ([]models.AnswerVariant, error) {
	query := `SELECT id, answer_id, variant_text, variant_html, technique, confidence, is_approved FROM answer_variants WHERE answer_id = ?`
	if approvedOnly {
		query += ` AND is_approved = 1`
	}

	rows, err := c.db.Query(query, answerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list answer variants: %w", err)
	}
	defer rows.Close()

	var variants []models.AnswerVariant
	for rows.Next() {
		var v models.AnswerVariant
		var approved int

		err := rows.Scan(&v.ID, &v.AnswerID, &v.VariantText, &v.VariantHTML, &v.Technique, &v.Confidence, &approved)
		if err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		v.IsApproved = approved == 1
		variants = append(variants, v)
	}

	return variants, nil
}

// ListMatchCandidates loads the matchable pool for one agent: final
// questions of a final agent whose answer is final too, with approved
// variants only. Draft material never reaches the matcher.
func (c *Client) ListMatchCandidates(agentID string) ([]models.Question, error) {
	query := `
		SELECT q.id, q.agent_id, q.text, q.status, a.id, a.question_id, a.text, a.html, a.status
		FROM questions q
		JOIN answers a ON a.question_id = q.id
		JOIN agents ag ON ag.id = q.agent_id
		WHERE q.agent_id = ?
		  AND q.status = 'final'
		  AND a.status = 'final'
		  AND ag.status = 'final'
	`

	rows, err := c.db.Query(query, agentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list match candidates: %w", err)
	}
	defer rows.Close()

	var questions []models.Question
	for rows.Next() {
		var q models.Question
		var a models.Answer

		err := rows.Scan(&q.ID, &q.AgentID, &q.Text, &q.Status, &a.ID, &a.QuestionID, &a.Text, &a.HTML, &a.Status)
		if err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		q.Answer = &a
		questions = append(questions, q)
	}

	for i := range questions {
		questions[i].Variants, err = c.listQuestionVariants(questions[i].ID, true)
		if err != nil {
			return nil, err
		}

		questions[i].Answer.Variants, err = c.listAnswerVariants(questions[i].Answer.ID, true)
		if err != nil {
			return nil, err
		}
	}

	return questions, nil
}

func (c *Client) SetQuestionVariantApproval(id string, approved bool) error {
	result, err := c.db.Exec(`UPDATE question_variants SET is_approved = ? WHERE id = ?`, boolToInt(approved), id)
	if err != nil {
		return fmt.Errorf("failed to update question variant approval: %w", err)
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		return fmt.Errorf("question variant not found: %s", id)
	}

	return nil
}

func (c *Client) SetAnswerVariantApproval(id string, approved bool) error {
	result, err := c.db.Exec(`UPDATE answer_variants SET is_approved = ? WHERE id = ?`, boolToInt(approved), id)
	if err != nil {
		return fmt.Errorf("failed to update answer variant approval: %w", err)
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		return fmt.Errorf("answer variant not found: %s", id)
	}

	return nil
}

func (c *Client) CreateChatSession(s *models.ChatSession) error {
	query := `
		INSERT INTO chat_sessions (id, agent_id, visitor_id, message_count, created_at, last_active_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	_, err := c.db.Exec(query, s.ID, s.AgentID, s.VisitorID, s.MessageCount, s.CreatedAt.Unix(), s.LastActiveAt.Unix())
	if err != nil {
		return fmt.Errorf("failed to insert chat session: %w", err)
	}

	return nil
}

func (c *Client) GetChatSession(id string) (*models.ChatSession, error) {
	query := `SELECT id, agent_id, visitor_id, message_count, created_at, last_active_at FROM chat_sessions WHERE id = ?`

	var s models.ChatSession
	var createdAt, lastActiveAt int64

	err := c.db.QueryRow(query, id).Scan(&s.ID, &s.AgentID, &s.VisitorID, &s.MessageCount, &createdAt, &lastActiveAt)
	if err != nil {
		return nil, fmt.Errorf("failed to get chat session: %w", err)
	}

	s.CreatedAt = time.Unix(createdAt, 0)
	s.LastActiveAt = time.Unix(lastActiveAt, 0)

	return &s, nil
}

func (c *Client) TouchChatSession(id string, messages int) error {
	query := `UPDATE chat_sessions SET message_count = message_count + ?, last_active_at = ? WHERE id = ?`

	_, err := c.db.Exec(query, messages, time.Now().Unix(), id)
	if err != nil {
		return fmt.Errorf("failed to touch chat session: %w", err)
	}

	return nil
}

func (c *Client) InsertChatMessage(m *models.ChatMessage) error {
	query := `
		INSERT INTO chat_messages (id, session_id, sender, text, html, question_id, answer_id, score, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := c.db.Exec(
		query,
		m.ID,
		m.SessionID,
		m.Sender,
		m.Text,
		m.HTML,
		nullable(m.QuestionID),
		nullable(m.AnswerID),
		m.Score,
		m.CreatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert chat message: %w", err)
	}

	return nil
}

func (c *Client) ListSessionMessages(sessionID string, limit int) ([]models.ChatMessage, error) {
	query := `
		SELECT id, session_id, sender, text, html, question_id, answer_id, score, created_at
		FROM chat_messages
		WHERE session_id = ?
		ORDER BY created_at ASC
		LIMIT ?
	`

	rows, err := c.db.Query(query, sessionID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list session messages: %w", err)
	}
	defer rows.Close()

	var messages []models.ChatMessage
	for rows.Next() {
		var m models.ChatMessage
		var questionID, answerID sql.NullString
		var createdAt int64

		err := rows.Scan(&m.ID, &m.SessionID, &m.Sender, &m.Text, &m.HTML, &questionID, &answerID, &m.Score, &createdAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		m.QuestionID = questionID.String
		m.AnswerID = answerID.String
		m.CreatedAt = time.Unix(createdAt, 0)
		messages = append(messages, m)
	}

	return messages, nil
}

func (c *Client) InsertAuditEntry(e *models.AuditEntry) error {
	query := `INSERT INTO audit_log (actor, action, entity_type, entity_id, detail, created_at) VALUES (?, ?, ?, ?, ?, ?)`

	_, err := c.db.Exec(query, e.Actor, e.Action, e.EntityType, e.EntityID, e.Detail, e.CreatedAt.Unix())
	if err != nil {
		return fmt.Errorf("failed to insert audit entry: %w", err)
	}

	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func nullable(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
