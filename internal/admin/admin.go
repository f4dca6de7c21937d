package admin

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/playmatatu/tablesim/internal/models"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrOperatorNotFound = errors.New("operator not found")
	ErrInvalidToken     = errors.New("invalid token")
	ErrIPNotAllowed     = errors.New("ip not allowed")
)

// GetOperator retrieves an operator by username
func GetOperator(db *sqlx.DB, username string) (*models.Operator, error) {
	var op models.Operator
	err := db.Get(&op, `SELECT id, username, token_hash, roles, allowed_ips, created_at, last_login FROM operators WHERE username=$1`, username)
	if err != nil {
		return nil, err
	}
	return &op, nil
}

// VerifyOperatorToken checks if the provided token matches the stored hash
func VerifyOperatorToken(hashedToken, plainToken string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hashedToken), []byte(plainToken))
	return err == nil
}

// HashToken hashes a plain operator token for storage
func HashToken(plainToken string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(plainToken), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash token: %w", err)
	}
	return string(hashed), nil
}

// CreateOperator creates or updates an operator (used for seeding)
func CreateOperator(db *sqlx.DB, username, plainToken string, roles, allowedIPs []string) error {
	hashedToken, err := HashToken(plainToken)
	if err != nil {
		return err
	}

	_, err = db.Exec(`
		INSERT INTO operators (username, token_hash, roles, allowed_ips, created_at)
		VALUES ($1, $2, $3, $4, NOW())
		ON CONFLICT (username) DO UPDATE SET
			token_hash = EXCLUDED.token_hash,
			roles = EXCLUDED.roles,
			allowed_ips = EXCLUDED.allowed_ips
	`, username, hashedToken, pq.Array(roles), pq.Array(allowedIPs))

	return err
}

// IPAllowed reports whether ip may use the operator account. An empty list allows any IP.
func IPAllowed(op *models.Operator, ip string) bool {
	if len(op.AllowedIPs) == 0 {
		return true
	}
	for _, allowed := range op.AllowedIPs {
		if allowed == ip {
			return true
		}
	}
	return false
}

// ValidateOperator validates username + token + source IP
func ValidateOperator(db *sqlx.DB, username, token, ip string) (*models.Operator, error) {
	op, err := GetOperator(db, username)
	if err != nil {
		if err == sql.ErrNoRows {
			log.Printf("[ADMIN] No operator found: %s", username)
			return nil, ErrOperatorNotFound
		}
		log.Printf("[ADMIN] Database error: %v", err)
		return nil, fmt.Errorf("database error: %w", err)
	}

	if !VerifyOperatorToken(op.TokenHash, token) {
		log.Printf("[ADMIN] Token verification failed for operator: %s", username)
		return nil, ErrInvalidToken
	}

	if !IPAllowed(op, ip) {
		log.Printf("[ADMIN] Operator %s rejected from ip %s", username, ip)
		return nil, ErrIPNotAllowed
	}

	if _, err := db.Exec(`UPDATE operators SET last_login=NOW() WHERE id=$1`, op.ID); err != nil {
		log.Printf("[ADMIN] Failed to update last_login for %s: %v", username, err)
	}
	return op, nil
}

// LogOperatorAction records an operator action in the audit log
func LogOperatorAction(db *sqlx.DB, username, ip, route, action string, details map[string]interface{}, success bool) error {
	if details == nil {
		details = map[string]interface{}{}
	}
	detailsJSON, err := json.Marshal(details)
	if err != nil {
		log.Printf("[ADMIN] Failed to marshal audit details: %v", err)
		detailsJSON = []byte("{}")
	}

	_, err = db.Exec(`
		INSERT INTO operator_audit (username, ip, route, action, details, success, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
	`, username, ip, route, action, detailsJSON, success)

	if err != nil {
		log.Printf("[ADMIN] Failed to log operator action: %v", err)
	}

	return err
}

// GetAuditLogs retrieves recent operator audit logs with pagination
func GetAuditLogs(db *sqlx.DB, limit, offset int) ([]models.OperatorAudit, error) {
	var logs []models.OperatorAudit
	query := `
		SELECT id, username, ip, route, action, details, success, created_at
		FROM operator_audit
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`
	err := db.Select(&logs, query, limit, offset)
	return logs, err
}
