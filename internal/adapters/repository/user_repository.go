package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/IANDYI/authguard/internal/core/domain"
	"github.com/IANDYI/authguard/internal/core/ports"
	"github.com/IANDYI/authguard/internal/core/result"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/sony/gobreaker"
)

type UserRepository struct {
	exec ports.Executor
	cb   *gobreaker.CircuitBreaker
}

func (r *UserRepository) Create(ctx context.Context, email, passwordHash string) result.Result[domain.User] {
	u := domain.User{
		ID:           uuid.New(),
		Email:        domain.NormalizeEmail(email),
		PasswordHash: passwordHash,
		CreatedAt:    time.Now().UTC(),
		UpdatedAt:    time.Now().UTC(),
	}
	err := resilient(r.cb, func() error {
		_, execErr := r.exec.ExecContext(ctx,
			`INSERT INTO users (id, email, password_hash, created_at, updated_at) VALUES ($1, $2, $3, $4, $5)`,
			u.ID, u.Email, u.PasswordHash, u.CreatedAt, u.UpdatedAt)
		return execErr
	})
	if isUniqueViolation(err) {
		return result.Err[domain.User](result.Conflict(fmt.Sprintf("email %s already registered", u.Email)))
	}
	if err != nil {
		return result.AsResult(domain.User{}, err)
	}
	return result.Ok(u)
}

func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) result.Result[domain.User] {
	var u domain.User
	err := resilient(r.cb, func() error {
		row := r.exec.QueryRowContext(ctx,
			`SELECT id, email, password_hash, created_at, updated_at FROM users WHERE id = $1`, id)
		return row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt)
	})
	if err != nil {
		return result.AsResult(domain.User{}, err)
	}
	if err := r.loadRoles(ctx, &u); err != nil {
		return result.AsResult(domain.User{}, err)
	}
	return result.Ok(u)
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) result.Result[domain.User] {
	var u domain.User
	normalized := domain.NormalizeEmail(email)
	err := resilient(r.cb, func() error {
		row := r.exec.QueryRowContext(ctx,
			`SELECT id, email, password_hash, created_at, updated_at FROM users WHERE email = $1`, normalized)
		return row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt)
	})
	if err != nil {
		return result.AsResult(domain.User{}, err)
	}
	if err := r.loadRoles(ctx, &u); err != nil {
		return result.AsResult(domain.User{}, err)
	}
	return result.Ok(u)
}

func (r *UserRepository) loadRoles(ctx context.Context, u *domain.User) error {
	rows, err := r.exec.QueryContext(ctx, `
		SELECT r.id, r.name, r.level, r.is_superuser
		FROM roles r
		JOIN user_roles ur ON ur.role_id = r.id
		WHERE ur.user_id = $1
		ORDER BY r.level DESC`, u.ID)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var role domain.Role
		if err := rows.Scan(&role.ID, &role.Name, &role.Level, &role.IsSuperuser); err != nil {
			return err
		}
		u.Roles = append(u.Roles, role)
	}
	return rows.Err()
}

func (r *UserRepository) List(ctx context.Context, f ports.UserFilter) result.Result[ports.Page[domain.User]] {
	if f.Limit <= 0 {
		f.Limit = 20
	}
	if f.Page <= 0 {
		f.Page = 1
	}
	offset := (f.Page - 1) * f.Limit
	order := "DESC"
	if strings.EqualFold(f.OrderBy, "ASC") {
		order = "ASC"
	}

	var (
		items []domain.User
		total int
	)
	err := resilient(r.cb, func() error {
		query := "SELECT id, email, password_hash, created_at, updated_at FROM users WHERE 1=1"
		countQuery := "SELECT COUNT(*) FROM users WHERE 1=1"
		var args []interface{}
		idx := 1
		if f.Email != "" {
			query += fmt.Sprintf(" AND email ILIKE $%d", idx)
			countQuery += fmt.Sprintf(" AND email ILIKE $%d", idx)
			args = append(args, "%"+f.Email+"%")
			idx++
		}
		if f.FromDate != nil {
			query += fmt.Sprintf(" AND created_at >= $%d", idx)
			countQuery += fmt.Sprintf(" AND created_at >= $%d", idx)
			args = append(args, *f.FromDate)
			idx++
		}
		if f.ToDate != nil {
			query += fmt.Sprintf(" AND created_at <= $%d", idx)
			countQuery += fmt.Sprintf(" AND created_at <= $%d", idx)
			args = append(args, *f.ToDate)
			idx++
		}

		if err := r.exec.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
			return err
		}

		query += fmt.Sprintf(" ORDER BY created_at %s LIMIT $%d OFFSET $%d", order, idx, idx+1)
		args = append(args, f.Limit, offset)

		rows, err := r.exec.QueryContext(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var u domain.User
			if err := rows.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt); err != nil {
				return err
			}
			items = append(items, u)
		}
		return rows.Err()
	})
	if err != nil {
		return result.AsResult(ports.Page[domain.User]{}, err)
	}
	return result.Ok(ports.Page[domain.User]{Items: items, Limit: f.Limit, Offset: offset, Total: total})
}

func (r *UserRepository) Update(ctx context.Context, id uuid.UUID, email, passwordHash *string) result.Result[domain.User] {
	err := resilient(r.cb, func() error {
		sets := []string{"updated_at = $1"}
		args := []interface{}{time.Now().UTC()}
		idx := 2
		if email != nil {
			sets = append(sets, fmt.Sprintf("email = $%d", idx))
			args = append(args, domain.NormalizeEmail(*email))
			idx++
		}
		if passwordHash != nil {
			sets = append(sets, fmt.Sprintf("password_hash = $%d", idx))
			args = append(args, *passwordHash)
			idx++
		}
		args = append(args, id)
		query := fmt.Sprintf("UPDATE users SET %s WHERE id = $%d", strings.Join(sets, ", "), idx)
		res, execErr := r.exec.ExecContext(ctx, query, args...)
		if execErr != nil {
			return execErr
		}
		n, _ := res.RowsAffected()
		if n == 0 {
			return sql.ErrNoRows
		}
		return nil
	})
	if isUniqueViolation(err) {
		return result.Err[domain.User](result.Conflict("email already registered"))
	}
	if err != nil {
		return result.AsResult(domain.User{}, err)
	}
	return r.GetByID(ctx, id)
}

func (r *UserRepository) Delete(ctx context.Context, id uuid.UUID) result.Result[bool] {
	err := resilient(r.cb, func() error {
		res, execErr := r.exec.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
		if execErr != nil {
			return execErr
		}
		n, _ := res.RowsAffected()
		if n == 0 {
			return sql.ErrNoRows
		}
		return nil
	})
	if err != nil {
		return result.AsResult(false, err)
	}
	return result.Ok(true)
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if ok := asPQError(err, &pqErr); ok {
		return pqErr.Code == "23505"
	}
	return false
}

func asPQError(err error, target **pq.Error) bool {
	for err != nil {
		if pe, ok := err.(*pq.Error); ok {
			*target = pe
			return true
		}
		unwrapper, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = unwrapper.Unwrap()
	}
	return false
}
