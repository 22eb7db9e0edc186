package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/noah-isme/classroom-api/internal/database"
	"github.com/noah-isme/classroom-api/internal/models"
)

// ErrNoRowsAffected signals that a mutation matched nothing inside its
// transaction, which means the row vanished after the caller checked for it.
var ErrNoRowsAffected = errors.New("no rows affected")

const studentColumns = "id, name, email, subject, grade, created_at"

// SortField is the closed set of columns a student list can be ordered by.
type SortField int

// Sortable columns.
const (
	SortByCreatedAt SortField = iota
	SortByName
	SortBySubject
	SortByGrade
)

// ParseSortField maps a query value onto a sortable column, falling back to created_at.
func ParseSortField(input string) SortField {
	switch strings.ToLower(strings.TrimSpace(input)) {
	case "name":
		return SortByName
	case "subject":
		return SortBySubject
	case "grade":
		return SortByGrade
	default:
		return SortByCreatedAt
	}
}

func (f SortField) column() string {
	switch f {
	case SortByName:
		return "name"
	case SortBySubject:
		return "subject"
	case SortByGrade:
		return "grade"
	default:
		return "created_at"
	}
}

// SortDirection orders list results.
type SortDirection int

// Sort directions.
const (
	SortDesc SortDirection = iota
	SortAsc
)

// ParseSortDirection maps asc/desc, falling back to desc.
func ParseSortDirection(input string) SortDirection {
	if strings.EqualFold(strings.TrimSpace(input), "asc") {
		return SortAsc
	}
	return SortDesc
}

func (d SortDirection) keyword() string {
	if d == SortAsc {
		return "ASC"
	}
	return "DESC"
}

// StudentField is the closed set of columns an update may write.
type StudentField int

// Updatable columns.
const (
	FieldName StudentField = iota + 1
	FieldEmail
	FieldSubject
	FieldGrade
)

func (f StudentField) column() (string, error) {
	switch f {
	case FieldName:
		return "name", nil
	case FieldEmail:
		return "email", nil
	case FieldSubject:
		return "subject", nil
	case FieldGrade:
		return "grade", nil
	default:
		return "", fmt.Errorf("field %d is not updatable", f)
	}
}

// FieldUpdate assigns a new value to one updatable column.
type FieldUpdate struct {
	Field StudentField
	Value interface{}
}

// StudentFilter defines filters for listing students.
type StudentFilter struct {
	Subject   models.Subject
	Search    string
	OwnerID   int64
	SortBy    SortField
	SortOrder SortDirection
	Page      int
	PageSize  int
}

// NewStudent carries the fields needed to insert a student.
type NewStudent struct {
	Name    string
	Email   string
	Subject models.Subject
	Grade   float64
}

// StudentRepository exposes persistence helpers for student records.
type StudentRepository interface {
	List(ctx context.Context, filter StudentFilter) ([]models.Student, int64, error)
	GetByID(ctx context.Context, id int64) (models.Student, bool, error)
	EmailExists(ctx context.Context, email string, excludeID int64) (bool, error)
	Count(ctx context.Context) (int64, error)
	Create(ctx context.Context, student NewStudent) (models.Student, error)
	CreateMany(ctx context.Context, students []NewStudent) ([]models.Student, error)
	Update(ctx context.Context, id int64, updates []FieldUpdate) (models.Student, error)
	Delete(ctx context.Context, id int64) error
}

type studentRepository struct {
	gw *database.Gateway
}

// NewStudentRepository constructs the student repository.
func NewStudentRepository(gw *database.Gateway) StudentRepository {
	return &studentRepository{gw: gw}
}

// studentPredicate renders the WHERE clause shared by the count and page
// queries. Each call returns a fresh argument slice.
func studentPredicate(filter StudentFilter) (string, []interface{}) {
	clauses := make([]string, 0, 3)
	args := make([]interface{}, 0, 4)

	if filter.Subject != "" {
		clauses = append(clauses, "subject = ?")
		args = append(args, string(filter.Subject))
	}

	if filter.Search != "" {
		like := "%" + escapeLike(strings.ToLower(filter.Search)) + "%"
		clauses = append(clauses, `(LOWER(name) LIKE ? ESCAPE '\' OR LOWER(subject) LIKE ? ESCAPE '\')`)
		args = append(args, like, like)
	}

	if filter.OwnerID > 0 {
		clauses = append(clauses, "id = ?")
		args = append(args, filter.OwnerID)
	}

	if len(clauses) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

func escapeLike(value string) string {
	replacer := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return replacer.Replace(value)
}

func (r *studentRepository) List(ctx context.Context, filter StudentFilter) ([]models.Student, int64, error) {
	page := filter.Page
	if page <= 0 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 {
		pageSize = 10
	}

	countWhere, countArgs := studentPredicate(filter)
	var total int64
	if _, err := r.gw.FetchOne(ctx, &total, "SELECT COUNT(*) FROM students"+countWhere, countArgs...); err != nil {
		return nil, 0, fmt.Errorf("count students: %w", err)
	}

	pageWhere, pageArgs := studentPredicate(filter)
	direction := filter.SortOrder.keyword()
	query := fmt.Sprintf("SELECT %s FROM students%s ORDER BY %s %s, id %s LIMIT ? OFFSET ?",
		studentColumns, pageWhere, filter.SortBy.column(), direction, direction)
	pageArgs = append(pageArgs, pageSize, (page-1)*pageSize)

	students := make([]models.Student, 0, pageSize)
	if err := r.gw.FetchMany(ctx, &students, query, pageArgs...); err != nil {
		return nil, 0, fmt.Errorf("list students: %w", err)
	}

	return students, total, nil
}

func (r *studentRepository) GetByID(ctx context.Context, id int64) (models.Student, bool, error) {
	return getStudent(ctx, r.gw, id)
}

func getStudent(ctx context.Context, gw *database.Gateway, id int64) (models.Student, bool, error) {
	var student models.Student
	found, err := gw.FetchOne(ctx, &student, "SELECT "+studentColumns+" FROM students WHERE id = ?", id)
	if err != nil {
		return models.Student{}, false, fmt.Errorf("get student %d: %w", id, err)
	}
	return student, found, nil
}

func (r *studentRepository) EmailExists(ctx context.Context, email string, excludeID int64) (bool, error) {
	query := "SELECT id FROM students WHERE LOWER(email) = LOWER(?)"
	args := []interface{}{email}
	if excludeID > 0 {
		query += " AND id <> ?"
		args = append(args, excludeID)
	}
	query += " LIMIT 1"

	var match struct {
		ID int64
	}
	found, err := r.gw.FetchOne(ctx, &match, query, args...)
	if err != nil {
		return false, fmt.Errorf("check student email: %w", err)
	}
	return found, nil
}

func (r *studentRepository) Count(ctx context.Context) (int64, error) {
	var total int64
	if _, err := r.gw.FetchOne(ctx, &total, "SELECT COUNT(*) FROM students"); err != nil {
		return 0, fmt.Errorf("count students: %w", err)
	}
	return total, nil
}

func (r *studentRepository) Create(ctx context.Context, input NewStudent) (models.Student, error) {
	var created models.Student
	err := r.gw.Transaction(ctx, func(tx *database.Gateway) error {
		student, err := insertStudent(ctx, tx, input)
		if err != nil {
			return err
		}
		created = student
		return nil
	})
	if err != nil {
		return models.Student{}, err
	}

	return created, nil
}

// CreateMany inserts every student in one transaction; a single failure leaves
// none of them behind.
func (r *studentRepository) CreateMany(ctx context.Context, inputs []NewStudent) ([]models.Student, error) {
	created := make([]models.Student, 0, len(inputs))
	err := r.gw.Transaction(ctx, func(tx *database.Gateway) error {
		for _, input := range inputs {
			student, err := insertStudent(ctx, tx, input)
			if err != nil {
				return fmt.Errorf("insert student %s: %w", input.Email, err)
			}
			created = append(created, student)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return created, nil
}

func insertStudent(ctx context.Context, tx *database.Gateway, input NewStudent) (models.Student, error) {
	id, err := tx.ExecReturningID(ctx,
		"INSERT INTO students (name, email, subject, grade) VALUES (?, ?, ?, ?) RETURNING id",
		input.Name, input.Email, string(input.Subject), input.Grade)
	if err != nil {
		return models.Student{}, err
	}

	student, found, err := getStudent(ctx, tx, id)
	if err != nil {
		return models.Student{}, err
	}
	if !found {
		return models.Student{}, fmt.Errorf("inserted student %d not readable: %w", id, ErrNoRowsAffected)
	}

	return student, nil
}

func (r *studentRepository) Update(ctx context.Context, id int64, updates []FieldUpdate) (models.Student, error) {
	if len(updates) == 0 {
		return models.Student{}, fmt.Errorf("update student %d: no fields", id)
	}

	assignments := make([]string, 0, len(updates))
	args := make([]interface{}, 0, len(updates)+1)
	for _, update := range updates {
		column, err := update.Field.column()
		if err != nil {
			return models.Student{}, err
		}
		assignments = append(assignments, column+" = ?")
		args = append(args, update.Value)
	}
	args = append(args, id)

	query := "UPDATE students SET " + strings.Join(assignments, ", ") + " WHERE id = ?"

	var updated models.Student
	err := r.gw.Transaction(ctx, func(tx *database.Gateway) error {
		res, err := tx.Exec(ctx, query, args...)
		if err != nil {
			return err
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("update student %d: %w", id, ErrNoRowsAffected)
		}

		student, found, err := getStudent(ctx, tx, id)
		if err != nil {
			return err
		}
		if !found {
			return fmt.Errorf("update student %d: %w", id, ErrNoRowsAffected)
		}

		updated = student
		return nil
	})
	if err != nil {
		return models.Student{}, err
	}

	return updated, nil
}

func (r *studentRepository) Delete(ctx context.Context, id int64) error {
	return r.gw.Transaction(ctx, func(tx *database.Gateway) error {
		res, err := tx.Exec(ctx, "DELETE FROM students WHERE id = ?", id)
		if err != nil {
			return err
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("delete student %d: %w", id, ErrNoRowsAffected)
		}
		return nil
	})
}
