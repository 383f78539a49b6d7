package storage

import (
	"context"
	"testing"
	"time"

	"finance-tracker/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

var defaultNames = []string{"Groceries", "Transportation", "Entertainment", "Bills", "Shopping", "Healthcare", "Other"}

// DBTestSuite provides a test suite for user, category, expense and budget operations
type DBTestSuite struct {
	suite.Suite
	db   *DB
	ctx  context.Context
	user *models.User
}

// SetupTest runs before each test
func (suite *DBTestSuite) SetupTest() {
	db, err := NewDB(":memory:")
	require.NoError(suite.T(), err, "failed to create test database")
	suite.db = db
	suite.ctx = context.Background()

	user, err := db.CreateUserWithCategories(suite.ctx, "alice", "hash", defaultNames)
	require.NoError(suite.T(), err, "failed to create test user")
	suite.user = user
}

// TearDownTest runs after each test
func (suite *DBTestSuite) TearDownTest() {
	if suite.db != nil {
		suite.db.Close()
	}
}

func (suite *DBTestSuite) category(name string) models.Category {
	categories, err := suite.db.ListCategories(suite.ctx, suite.user.ID)
	require.NoError(suite.T(), err)
	for _, c := range categories {
		if c.Name == name {
			return c
		}
	}
	suite.T().Fatalf("category %q not found", name)
	return models.Category{}
}

func (suite *DBTestSuite) TestCreateUserWithCategories() {
	categories, err := suite.db.ListCategories(suite.ctx, suite.user.ID)
	require.NoError(suite.T(), err)
	require.Len(suite.T(), categories, len(defaultNames))

	for i, c := range categories {
		assert.Equal(suite.T(), defaultNames[i], c.Name)
		assert.Equal(suite.T(), suite.user.ID, c.UserID)
	}
}

func (suite *DBTestSuite) TestDuplicateUsername() {
	_, err := suite.db.CreateUserWithCategories(suite.ctx, "alice", "other", defaultNames)
	assert.ErrorIs(suite.T(), err, ErrUsernameTaken)

	count, err := suite.db.UserCount(suite.ctx)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), 1, count, "no second user should be created")

	// The rolled back transaction must not leave categories behind.
	var categories int
	require.NoError(suite.T(), suite.db.conn.QueryRow("SELECT COUNT(*) FROM categories").Scan(&categories))
	assert.Equal(suite.T(), len(defaultNames), categories)
}

func (suite *DBTestSuite) TestGetUserByUsernameNotFound() {
	_, err := suite.db.GetUserByUsername(suite.ctx, "nobody")
	assert.ErrorIs(suite.T(), err, ErrNotFound)
}

func (suite *DBTestSuite) TestGetCategoryScopedToOwner() {
	bob, err := suite.db.CreateUserWithCategories(suite.ctx, "bob", "hash", []string{"Other"})
	require.NoError(suite.T(), err)

	groceries := suite.category("Groceries")

	got, err := suite.db.GetCategory(suite.ctx, suite.user.ID, groceries.ID)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), "Groceries", got.Name)

	_, err = suite.db.GetCategory(suite.ctx, bob.ID, groceries.ID)
	assert.ErrorIs(suite.T(), err, ErrNotFound, "category of another user must not resolve")
}

func (suite *DBTestSuite) TestCreateExpense() {
	e := &models.Expense{
		Amount:      10.50,
		Description: "Lunch",
		Date:        time.Now(),
		CategoryID:  suite.category("Groceries").ID,
		UserID:      suite.user.ID,
	}
	require.NoError(suite.T(), suite.db.CreateExpense(suite.ctx, e))
	assert.NotZero(suite.T(), e.ID)
}

func (suite *DBTestSuite) TestCreateExpenseDefaultsDate() {
	e := &models.Expense{Amount: 3, CategoryID: suite.category("Other").ID, UserID: suite.user.ID}
	require.NoError(suite.T(), suite.db.CreateExpense(suite.ctx, e))

	expenses, err := suite.db.ListExpenses(suite.ctx, suite.user.ID)
	require.NoError(suite.T(), err)
	require.Len(suite.T(), expenses, 1)
	assert.WithinDuration(suite.T(), time.Now(), expenses[0].Date, time.Minute)
}

func (suite *DBTestSuite) TestCreateExpenseUnknownCategory() {
	e := &models.Expense{Amount: 1, Date: time.Now(), CategoryID: 9999, UserID: suite.user.ID}
	assert.Error(suite.T(), suite.db.CreateExpense(suite.ctx, e), "foreign key should reject unknown category")
}

func (suite *DBTestSuite) TestListExpensesNewestFirst() {
	groceries := suite.category("Groceries").ID
	for _, d := range []string{"2024-01-01", "2024-03-01", "2024-02-01"} {
		date, err := time.Parse("2006-01-02", d)
		require.NoError(suite.T(), err)
		require.NoError(suite.T(), suite.db.CreateExpense(suite.ctx, &models.Expense{
			Amount: 1, Description: d, Date: date, CategoryID: groceries, UserID: suite.user.ID,
		}))
	}

	result, err := suite.db.ListExpenses(suite.ctx, suite.user.ID)
	require.NoError(suite.T(), err)
	require.Len(suite.T(), result, 3)

	var got []string
	for _, e := range result {
		got = append(got, e.Date.Format("2006-01-02"))
	}
	assert.Equal(suite.T(), []string{"2024-03-01", "2024-02-01", "2024-01-01"}, got)
}

func (suite *DBTestSuite) TestListExpensesScopedToUser() {
	bob, err := suite.db.CreateUserWithCategories(suite.ctx, "bob", "hash", []string{"Other"})
	require.NoError(suite.T(), err)
	bobCategories, err := suite.db.ListCategories(suite.ctx, bob.ID)
	require.NoError(suite.T(), err)

	require.NoError(suite.T(), suite.db.CreateExpense(suite.ctx, &models.Expense{
		Amount: 5, Date: time.Now(), CategoryID: bobCategories[0].ID, UserID: bob.ID,
	}))

	expenses, err := suite.db.ListExpenses(suite.ctx, suite.user.ID)
	require.NoError(suite.T(), err)
	assert.Empty(suite.T(), expenses)
}

func (suite *DBTestSuite) TestListExpensesByCategory() {
	groceries := suite.category("Groceries").ID
	bills := suite.category("Bills").ID

	for _, e := range []models.Expense{
		{Amount: 10, CategoryID: groceries},
		{Amount: 20, CategoryID: groceries},
		{Amount: 99, CategoryID: bills},
	} {
		e.UserID = suite.user.ID
		e.Date = time.Now()
		require.NoError(suite.T(), suite.db.CreateExpense(suite.ctx, &e))
	}

	result, err := suite.db.ListExpensesByCategory(suite.ctx, suite.user.ID, groceries)
	require.NoError(suite.T(), err)
	require.Len(suite.T(), result, 2)
	for _, e := range result {
		assert.Equal(suite.T(), groceries, e.CategoryID)
	}
}

func (suite *DBTestSuite) TestUpsertBudgetOverwrites() {
	groceries := suite.category("Groceries").ID

	first, err := suite.db.UpsertBudget(suite.ctx, suite.user.ID, groceries, "2024-05", 100)
	require.NoError(suite.T(), err)
	second, err := suite.db.UpsertBudget(suite.ctx, suite.user.ID, groceries, "2024-05", 150)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), first.ID, second.ID)

	budgets, err := suite.db.ListBudgets(suite.ctx, suite.user.ID)
	require.NoError(suite.T(), err)
	require.Len(suite.T(), budgets, 1, "second upsert must not add a row")
	assert.Equal(suite.T(), 150.0, budgets[0].Amount)
	assert.Equal(suite.T(), "2024-05", budgets[0].Month)
}

func (suite *DBTestSuite) TestUpsertBudgetSeparatesMonths() {
	groceries := suite.category("Groceries").ID

	_, err := suite.db.UpsertBudget(suite.ctx, suite.user.ID, groceries, "2024-04", 80)
	require.NoError(suite.T(), err)
	_, err = suite.db.UpsertBudget(suite.ctx, suite.user.ID, groceries, "2024-05", 100)
	require.NoError(suite.T(), err)

	budgets, err := suite.db.ListBudgets(suite.ctx, suite.user.ID)
	require.NoError(suite.T(), err)
	require.Len(suite.T(), budgets, 2)
	assert.Equal(suite.T(), "2024-05", budgets[0].Month, "newest month first")

	may, err := suite.db.ListBudgetsForMonth(suite.ctx, suite.user.ID, "2024-05")
	require.NoError(suite.T(), err)
	require.Len(suite.T(), may, 1)
	assert.Equal(suite.T(), 100.0, may[0].Amount)
}

// SessionTestSuite provides a test suite for session operations
type SessionTestSuite struct {
	suite.Suite
	db   *DB
	ctx  context.Context
	user *models.User
}

// SetupTest runs before each test
func (suite *SessionTestSuite) SetupTest() {
	db, err := NewDB(":memory:")
	require.NoError(suite.T(), err, "failed to create test database")
	suite.db = db
	suite.ctx = context.Background()

	user, err := suite.db.CreateUserWithCategories(suite.ctx, "testuser", "hash", []string{"Other"})
	require.NoError(suite.T(), err, "failed to create test user")
	suite.user = user
}

// TearDownTest runs after each test
func (suite *SessionTestSuite) TearDownTest() {
	if suite.db != nil {
		suite.db.Close()
	}
}

func (suite *SessionTestSuite) TestCreateAndValidateSession() {
	token := uuid.NewString()

	expiresAt := time.Now().Add(30 * 24 * time.Hour)
	err := suite.db.CreateSession(suite.ctx, token, suite.user.ID, expiresAt)
	require.NoError(suite.T(), err)

	sessionUser, err := suite.db.ValidateSession(suite.ctx, token)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), "testuser", sessionUser.Username)
}

func (suite *SessionTestSuite) TestValidateSessionWithInfo() {
	token := uuid.NewString()

	expiresAt := time.Now().Add(30 * 24 * time.Hour)
	err := suite.db.CreateSession(suite.ctx, token, suite.user.ID, expiresAt)
	require.NoError(suite.T(), err)

	info, err := suite.db.ValidateSessionWithInfo(suite.ctx, token)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), "testuser", info.User.Username)

	timeSinceActivity := time.Since(info.LastActivity)
	assert.Less(suite.T(), timeSinceActivity, 5*time.Second, "LastActivity should be recent")
}

func (suite *SessionTestSuite) TestExpiredSessionIsInvalid() {
	token := uuid.NewString()
	err := suite.db.CreateSession(suite.ctx, token, suite.user.ID, time.Now().Add(-time.Minute))
	require.NoError(suite.T(), err)

	_, err = suite.db.ValidateSession(suite.ctx, token)
	assert.ErrorIs(suite.T(), err, ErrNotFound)
}

func (suite *SessionTestSuite) TestRenewSession() {
	token := uuid.NewString()

	originalExpiry := time.Now().Add(30 * 24 * time.Hour)
	err := suite.db.CreateSession(suite.ctx, token, suite.user.ID, originalExpiry)
	require.NoError(suite.T(), err)

	// Wait a moment to ensure timestamps differ
	time.Sleep(10 * time.Millisecond)

	originalInfo, err := suite.db.ValidateSessionWithInfo(suite.ctx, token)
	require.NoError(suite.T(), err)

	newExpiry := time.Now().Add(60 * 24 * time.Hour)
	err = suite.db.RenewSession(suite.ctx, token, newExpiry)
	require.NoError(suite.T(), err)

	updatedInfo, err := suite.db.ValidateSessionWithInfo(suite.ctx, token)
	require.NoError(suite.T(), err)

	assert.True(suite.T(), updatedInfo.LastActivity.After(originalInfo.LastActivity),
		"LastActivity should be updated after renewal")
	assert.True(suite.T(), updatedInfo.ExpiresAt.After(originalInfo.ExpiresAt),
		"ExpiresAt should be extended after renewal")
}

func (suite *SessionTestSuite) TestDeleteSession() {
	token := uuid.NewString()

	expiresAt := time.Now().Add(30 * 24 * time.Hour)
	err := suite.db.CreateSession(suite.ctx, token, suite.user.ID, expiresAt)
	require.NoError(suite.T(), err)

	_, err = suite.db.ValidateSession(suite.ctx, token)
	require.NoError(suite.T(), err, "session should exist before deletion")

	err = suite.db.DeleteSession(suite.ctx, token)
	require.NoError(suite.T(), err)

	_, err = suite.db.ValidateSession(suite.ctx, token)
	assert.Error(suite.T(), err, "expected error after deleting session")
}

func (suite *SessionTestSuite) TestCleanExpiredSessions() {
	live := uuid.NewString()
	stale := uuid.NewString()
	require.NoError(suite.T(), suite.db.CreateSession(suite.ctx, live, suite.user.ID, time.Now().Add(time.Hour)))
	require.NoError(suite.T(), suite.db.CreateSession(suite.ctx, stale, suite.user.ID, time.Now().Add(-time.Hour)))

	removed, err := suite.db.CleanExpiredSessions(suite.ctx)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), int64(1), removed)

	_, err = suite.db.ValidateSession(suite.ctx, live)
	assert.NoError(suite.T(), err, "live session should survive cleanup")
}

// Test suite runners
func TestDBSuite(t *testing.T) {
	suite.Run(t, new(DBTestSuite))
}

func TestSessionSuite(t *testing.T) {
	suite.Run(t, new(SessionTestSuite))
}
