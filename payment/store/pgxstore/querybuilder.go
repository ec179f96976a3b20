package pgxstore

import (
	"fmt"

	"github.com/eddiespino/aliento-pay/payment"
)

// PaymentsQueryBuilder provides a domain-specific language for building payment queries
type PaymentsQueryBuilder struct {
	sql  string
	args []any
}

// NewPaymentsQuery creates a new payments query builder
func NewPaymentsQuery() *PaymentsQueryBuilder {
	return &PaymentsQueryBuilder{
		sql: basePaymentsQuery,
	}
}

// ForCriteria applies the list criteria to the query in one fluent call
func (q *PaymentsQueryBuilder) ForCriteria(criteria payment.ListCriteria) *PaymentsQueryBuilder {
	return q.
		filterByUser(criteria.User).
		filterByStatus(criteria.Status).
		orderByCreatedAtDesc().
		paginateWithDetection(criteria)
}

// filterByUser matches the user as either sender or recipient
func (q *PaymentsQueryBuilder) filterByUser(user string) *PaymentsQueryBuilder {
	if user != "" {
		q.addWhereCondition("(sender = $%d OR recipient = $%[1]d)", user)
	}
	return q
}

// filterByStatus adds status filtering if the status is specified
func (q *PaymentsQueryBuilder) filterByStatus(status payment.Status) *PaymentsQueryBuilder {
	if status != "" {
		q.addWhereCondition("status = $%d", string(status))
	}
	return q
}

// orderByCreatedAtDesc adds creation time ordering (most recent first)
func (q *PaymentsQueryBuilder) orderByCreatedAtDesc() *PaymentsQueryBuilder {
	q.sql += " ORDER BY created_at DESC, id"
	return q
}

// paginateWithDetection adds pagination with "has more" detection using LIMIT n+1
func (q *PaymentsQueryBuilder) paginateWithDetection(criteria payment.ListCriteria) *PaymentsQueryBuilder {
	// Request one extra item to detect if there are more pages
	limit := criteria.ItemsPerPage() + 1
	offset := criteria.ItemsToSkip()

	q.addParameter("LIMIT $%d", limit)

	if offset > 0 {
		q.addParameter("OFFSET $%d", offset)
	}

	return q
}

// Build returns the final SQL query and arguments
func (q *PaymentsQueryBuilder) Build() (string, []any) {
	return q.sql, q.args
}

// Helper methods for building SQL

// addWhereCondition adds a WHERE condition, handling AND logic automatically
func (q *PaymentsQueryBuilder) addWhereCondition(sqlClause string, value any) {
	placeholder := q.nextPlaceholder()

	if q.hasWhereClause() {
		q.sql += " AND " + fmt.Sprintf(sqlClause, placeholder)
	} else {
		q.sql += " WHERE " + fmt.Sprintf(sqlClause, placeholder)
	}

	q.args = append(q.args, value)
}

// addParameter adds a SQL clause with a parameter
func (q *PaymentsQueryBuilder) addParameter(sqlClause string, value any) {
	placeholder := q.nextPlaceholder()
	q.sql += " " + fmt.Sprintf(sqlClause, placeholder)
	q.args = append(q.args, value)
}

// hasWhereClause checks if the query already has a WHERE clause
func (q *PaymentsQueryBuilder) hasWhereClause() bool {
	return len(q.args) > 0
}

// nextPlaceholder returns the next PostgreSQL placeholder ($1, $2, etc.)
func (q *PaymentsQueryBuilder) nextPlaceholder() int {
	return len(q.args) + 1
}
