package database

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// migrations are applied in order on every start; each statement is idempotent.
var migrations = []string{
	`CREATE TABLE IF NOT EXISTS branches (
		id UUID PRIMARY KEY,
		name VARCHAR(255) NOT NULL,
		code VARCHAR(50) NOT NULL UNIQUE,
		address TEXT NOT NULL DEFAULT '',
		phone VARCHAR(30) NOT NULL DEFAULT '',
		email VARCHAR(255) NOT NULL DEFAULT '',
		status VARCHAR(20) NOT NULL DEFAULT 'active',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS users (
		id UUID PRIMARY KEY,
		branch_id UUID REFERENCES branches(id),
		name VARCHAR(255) NOT NULL,
		email VARCHAR(255) NOT NULL UNIQUE,
		password VARCHAR(255) NOT NULL,
		role VARCHAR(30) NOT NULL,
		status VARCHAR(20) NOT NULL DEFAULT 'active',
		last_login_at TIMESTAMPTZ,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS classes (
		id UUID PRIMARY KEY,
		branch_id UUID NOT NULL REFERENCES branches(id),
		name VARCHAR(100) NOT NULL,
		academic_year VARCHAR(9) NOT NULL,
		status VARCHAR(20) NOT NULL DEFAULT 'active',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		UNIQUE (branch_id, name, academic_year)
	)`,
	`CREATE TABLE IF NOT EXISTS divisions (
		id UUID PRIMARY KEY,
		branch_id UUID NOT NULL REFERENCES branches(id),
		class_id UUID NOT NULL REFERENCES classes(id),
		name VARCHAR(50) NOT NULL,
		capacity INT NOT NULL DEFAULT 0,
		status VARCHAR(20) NOT NULL DEFAULT 'active',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		UNIQUE (class_id, name)
	)`,
	`CREATE TABLE IF NOT EXISTS transport_routes (
		id UUID PRIMARY KEY,
		branch_id UUID NOT NULL REFERENCES branches(id),
		name VARCHAR(100) NOT NULL,
		vehicle_no VARCHAR(30) NOT NULL DEFAULT '',
		driver_name VARCHAR(100) NOT NULL DEFAULT '',
		driver_phone VARCHAR(30) NOT NULL DEFAULT '',
		stops TEXT[] NOT NULL DEFAULT '{}',
		distance_groups JSONB NOT NULL DEFAULT '[]',
		status VARCHAR(20) NOT NULL DEFAULT 'active',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		UNIQUE (branch_id, name)
	)`,
	`CREATE TABLE IF NOT EXISTS students (
		id UUID PRIMARY KEY,
		branch_id UUID NOT NULL REFERENCES branches(id),
		admission_no VARCHAR(50) NOT NULL,
		first_name VARCHAR(100) NOT NULL,
		last_name VARCHAR(100) NOT NULL DEFAULT '',
		gender VARCHAR(10) NOT NULL,
		date_of_birth DATE,
		class_id UUID NOT NULL REFERENCES classes(id),
		division_id UUID REFERENCES divisions(id),
		academic_year VARCHAR(9) NOT NULL,
		guardian_name VARCHAR(255) NOT NULL DEFAULT '',
		guardian_phone VARCHAR(30) NOT NULL DEFAULT '',
		address TEXT NOT NULL DEFAULT '',
		admission_date DATE NOT NULL DEFAULT CURRENT_DATE,
		uses_transport BOOLEAN NOT NULL DEFAULT false,
		transport_route_id UUID REFERENCES transport_routes(id),
		distance_group VARCHAR(50),
		status VARCHAR(20) NOT NULL DEFAULT 'active',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		UNIQUE (branch_id, admission_no)
	)`,
	`CREATE TABLE IF NOT EXISTS departments (
		id UUID PRIMARY KEY,
		branch_id UUID NOT NULL REFERENCES branches(id),
		name VARCHAR(100) NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		status VARCHAR(20) NOT NULL DEFAULT 'active',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		UNIQUE (branch_id, name)
	)`,
	`CREATE TABLE IF NOT EXISTS designations (
		id UUID PRIMARY KEY,
		branch_id UUID NOT NULL REFERENCES branches(id),
		name VARCHAR(100) NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		status VARCHAR(20) NOT NULL DEFAULT 'active',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		UNIQUE (branch_id, name)
	)`,
	`CREATE TABLE IF NOT EXISTS staff (
		id UUID PRIMARY KEY,
		branch_id UUID NOT NULL REFERENCES branches(id),
		employee_code VARCHAR(50) NOT NULL,
		name VARCHAR(255) NOT NULL,
		email VARCHAR(255) NOT NULL DEFAULT '',
		phone VARCHAR(30) NOT NULL DEFAULT '',
		gender VARCHAR(10) NOT NULL DEFAULT 'other',
		department_id UUID NOT NULL REFERENCES departments(id),
		designation_id UUID NOT NULL REFERENCES designations(id),
		joining_date DATE NOT NULL,
		basic_salary NUMERIC(12,2) NOT NULL DEFAULT 0,
		allowances NUMERIC(12,2) NOT NULL DEFAULT 0,
		deductions NUMERIC(12,2) NOT NULL DEFAULT 0,
		bank_name VARCHAR(100) NOT NULL DEFAULT '',
		bank_account_no VARCHAR(50) NOT NULL DEFAULT '',
		status VARCHAR(20) NOT NULL DEFAULT 'active',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		UNIQUE (branch_id, employee_code)
	)`,
	`CREATE TABLE IF NOT EXISTS accounts (
		id UUID PRIMARY KEY,
		branch_id UUID NOT NULL REFERENCES branches(id),
		name VARCHAR(100) NOT NULL,
		type VARCHAR(10) NOT NULL,
		account_number VARCHAR(50) NOT NULL DEFAULT '',
		bank_name VARCHAR(100) NOT NULL DEFAULT '',
		opening_balance NUMERIC(14,2) NOT NULL DEFAULT 0,
		status VARCHAR(20) NOT NULL DEFAULT 'active',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		UNIQUE (branch_id, name)
	)`,
	`CREATE TABLE IF NOT EXISTS account_transactions (
		id UUID PRIMARY KEY,
		branch_id UUID NOT NULL REFERENCES branches(id),
		account_id UUID NOT NULL REFERENCES accounts(id),
		txn_date DATE NOT NULL,
		type VARCHAR(10) NOT NULL,
		amount NUMERIC(14,2) NOT NULL,
		source_type VARCHAR(30) NOT NULL,
		source_id UUID,
		narration TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS receipt_configs (
		id UUID PRIMARY KEY,
		branch_id UUID NOT NULL UNIQUE REFERENCES branches(id),
		school_name VARCHAR(255) NOT NULL DEFAULT '',
		address TEXT NOT NULL DEFAULT '',
		phone VARCHAR(30) NOT NULL DEFAULT '',
		email VARCHAR(255) NOT NULL DEFAULT '',
		logo_url TEXT NOT NULL DEFAULT '',
		header_text TEXT NOT NULL DEFAULT '',
		footer_text TEXT NOT NULL DEFAULT '',
		receipt_prefix VARCHAR(20) NOT NULL DEFAULT 'RCPT-',
		next_number BIGINT NOT NULL DEFAULT 1,
		number_padding INT NOT NULL DEFAULT 5,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS fee_structures (
		id UUID PRIMARY KEY,
		branch_id UUID NOT NULL REFERENCES branches(id),
		class_id UUID NOT NULL REFERENCES classes(id),
		academic_year VARCHAR(9) NOT NULL,
		components JSONB NOT NULL DEFAULT '[]',
		total_amount NUMERIC(12,2) NOT NULL DEFAULT 0,
		status VARCHAR(20) NOT NULL DEFAULT 'active',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		UNIQUE (branch_id, class_id, academic_year)
	)`,
	`CREATE TABLE IF NOT EXISTS fee_payments (
		id UUID PRIMARY KEY,
		branch_id UUID NOT NULL REFERENCES branches(id),
		student_id UUID NOT NULL REFERENCES students(id),
		academic_year VARCHAR(9) NOT NULL,
		receipt_no VARCHAR(50) NOT NULL,
		items JSONB NOT NULL DEFAULT '[]',
		amount NUMERIC(12,2) NOT NULL,
		payment_mode VARCHAR(20) NOT NULL,
		reference VARCHAR(100) NOT NULL DEFAULT '',
		paid_on DATE NOT NULL,
		account_id UUID REFERENCES accounts(id),
		status VARCHAR(20) NOT NULL DEFAULT 'paid',
		remarks TEXT NOT NULL DEFAULT '',
		collected_by UUID,
		cancelled_at TIMESTAMPTZ,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		UNIQUE (branch_id, receipt_no)
	)`,
	`CREATE TABLE IF NOT EXISTS payroll_entries (
		id UUID PRIMARY KEY,
		branch_id UUID NOT NULL REFERENCES branches(id),
		staff_id UUID NOT NULL REFERENCES staff(id),
		month INT NOT NULL,
		year INT NOT NULL,
		basic_salary NUMERIC(12,2) NOT NULL,
		allowances NUMERIC(12,2) NOT NULL DEFAULT 0,
		deductions NUMERIC(12,2) NOT NULL DEFAULT 0,
		net_salary NUMERIC(12,2) NOT NULL,
		status VARCHAR(20) NOT NULL DEFAULT 'pending',
		paid_on DATE,
		payment_mode VARCHAR(20) NOT NULL DEFAULT '',
		account_id UUID REFERENCES accounts(id),
		remarks TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		UNIQUE (staff_id, month, year)
	)`,
	`CREATE TABLE IF NOT EXISTS finance_categories (
		id UUID PRIMARY KEY,
		branch_id UUID NOT NULL REFERENCES branches(id),
		kind VARCHAR(10) NOT NULL,
		name VARCHAR(100) NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		status VARCHAR(20) NOT NULL DEFAULT 'active',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		UNIQUE (branch_id, kind, name)
	)`,
	`CREATE TABLE IF NOT EXISTS finance_entries (
		id UUID PRIMARY KEY,
		branch_id UUID NOT NULL REFERENCES branches(id),
		kind VARCHAR(10) NOT NULL,
		category_id UUID NOT NULL REFERENCES finance_categories(id),
		title VARCHAR(255) NOT NULL,
		amount NUMERIC(12,2) NOT NULL,
		entry_date DATE NOT NULL,
		payment_mode VARCHAR(20) NOT NULL DEFAULT 'cash',
		reference VARCHAR(100) NOT NULL DEFAULT '',
		account_id UUID REFERENCES accounts(id),
		notes TEXT NOT NULL DEFAULT '',
		created_by UUID,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS textbooks (
		id UUID PRIMARY KEY,
		branch_id UUID NOT NULL REFERENCES branches(id),
		title VARCHAR(255) NOT NULL,
		subject VARCHAR(100) NOT NULL DEFAULT '',
		class_id UUID REFERENCES classes(id),
		publisher VARCHAR(255) NOT NULL DEFAULT '',
		isbn VARCHAR(30) NOT NULL DEFAULT '',
		price NUMERIC(10,2) NOT NULL DEFAULT 0,
		stock INT NOT NULL DEFAULT 0 CHECK (stock >= 0),
		status VARCHAR(20) NOT NULL DEFAULT 'active',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_textbooks_unique_title
		ON textbooks (branch_id, title, COALESCE(class_id, '00000000-0000-0000-0000-000000000000'::uuid))`,
	`CREATE TABLE IF NOT EXISTS textbook_indents (
		id UUID PRIMARY KEY,
		branch_id UUID NOT NULL REFERENCES branches(id),
		student_id UUID NOT NULL REFERENCES students(id),
		academic_year VARCHAR(9) NOT NULL,
		status VARCHAR(20) NOT NULL DEFAULT 'pending',
		total_amount NUMERIC(12,2) NOT NULL DEFAULT 0,
		amount_paid NUMERIC(12,2) NOT NULL DEFAULT 0,
		remarks TEXT NOT NULL DEFAULT '',
		issued_at TIMESTAMPTZ,
		cancelled_at TIMESTAMPTZ,
		created_by UUID,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS textbook_indent_items (
		id UUID PRIMARY KEY,
		indent_id UUID NOT NULL REFERENCES textbook_indents(id) ON DELETE CASCADE,
		textbook_id UUID NOT NULL REFERENCES textbooks(id),
		title VARCHAR(255) NOT NULL,
		quantity INT NOT NULL CHECK (quantity > 0),
		returned_quantity INT NOT NULL DEFAULT 0,
		unit_price NUMERIC(10,2) NOT NULL,
		CHECK (returned_quantity >= 0 AND returned_quantity <= quantity)
	)`,
	`CREATE TABLE IF NOT EXISTS indent_payments (
		id UUID PRIMARY KEY,
		branch_id UUID NOT NULL REFERENCES branches(id),
		indent_id UUID NOT NULL REFERENCES textbook_indents(id),
		amount NUMERIC(12,2) NOT NULL,
		payment_mode VARCHAR(20) NOT NULL,
		paid_on DATE NOT NULL,
		account_id UUID REFERENCES accounts(id),
		created_by UUID,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS activity_logs (
		id UUID PRIMARY KEY,
		branch_id UUID,
		user_id UUID,
		user_name VARCHAR(255) NOT NULL DEFAULT '',
		role VARCHAR(30) NOT NULL DEFAULT '',
		module VARCHAR(50) NOT NULL,
		action VARCHAR(50) NOT NULL,
		entity_id VARCHAR(64) NOT NULL DEFAULT '',
		description TEXT NOT NULL DEFAULT '',
		metadata JSONB NOT NULL DEFAULT '{}',
		ip_address VARCHAR(64) NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_students_branch_class ON students (branch_id, class_id)`,
	`CREATE INDEX IF NOT EXISTS idx_fee_payments_branch_paid_on ON fee_payments (branch_id, paid_on)`,
	`CREATE INDEX IF NOT EXISTS idx_fee_payments_student ON fee_payments (student_id, academic_year)`,
	`CREATE INDEX IF NOT EXISTS idx_finance_entries_branch_date ON finance_entries (branch_id, kind, entry_date)`,
	`CREATE INDEX IF NOT EXISTS idx_payroll_branch_period ON payroll_entries (branch_id, year, month)`,
	`CREATE INDEX IF NOT EXISTS idx_account_txn_account_date ON account_transactions (account_id, txn_date)`,
	`CREATE INDEX IF NOT EXISTS idx_indents_branch_status ON textbook_indents (branch_id, status)`,
	`CREATE INDEX IF NOT EXISTS idx_activity_logs_branch_created ON activity_logs (branch_id, created_at DESC)`,
}

// RunMigrations applies the schema in order and stops at the first failure.
func RunMigrations(ctx context.Context, db *sqlx.DB) error {
	log.Info().Int("statements", len(migrations)).Msg("running database migrations...")

	for i, stmt := range migrations {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return errors.Wrapf(err, "migration %d", i+1)
		}
	}

	log.Info().Msg("database migrations completed successfully")
	return nil
}
