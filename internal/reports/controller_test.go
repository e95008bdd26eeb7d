package reports

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"game-reports/report-desk/internal/database"
	"game-reports/report-desk/internal/notifications"
)

// MockPresenter is a mock implementation of Presenter
type MockPresenter struct {
	mock.Mock
}

func (m *MockPresenter) SetTable(table TableViewModel)  { m.Called(table) }
func (m *MockPresenter) SetChart(chart ChartViewModel)  { m.Called(chart) }
func (m *MockPresenter) SetCategories(options []string) { m.Called(options) }
func (m *MockPresenter) UpdateSummary(summary Summary)  { m.Called(summary) }

func newTestController(repo *MockRepository, presenter Presenter, notifier notifications.Notifier) *Controller {
	service := NewService(repo, testSchema(), nil)
	return NewController(NewEngine(service, notifier, nil), service, presenter, notifier, nil)
}

func TestController_Initialize(t *testing.T) {
	repo := new(MockRepository)
	repo.On("FetchAll", mock.Anything, database.TableGenres).Return(scenarioGenres(), nil)
	repo.On("FetchModel", mock.Anything, database.TableGames).Return(&database.Model{
		Columns: gameColumns,
		Rows:    scenarioGames(),
	}, nil)

	presenter := NewSnapshotPresenter()
	ctrl := newTestController(repo, presenter, nil)

	require.NoError(t, ctrl.Initialize(context.Background()))

	assert.Equal(t, []string{"All", "RPG", "Action"}, presenter.Categories())
	assert.Equal(t, gameColumns, presenter.Table().Columns)
	assert.Len(t, presenter.Table().Rows, 2)
	assert.Equal(t, []string{"A", "B"}, presenter.Chart().AxisLabels)
	assert.Equal(t, Summary{Count: 2, Total: 15}, presenter.Summary())
	require.NotNil(t, ctrl.Last())
}

func TestController_InitializeWithoutConnection(t *testing.T) {
	repo := new(MockRepository)
	connErr := &database.ConnectionError{Op: "fetch"}
	repo.On("FetchAll", mock.Anything, database.TableGenres).Return(nil, connErr)
	repo.On("FetchModel", mock.Anything, database.TableGames).Return(nil, connErr)

	notifier := new(MockNotifier)
	notifier.On("Notify", mock.Anything, mock.Anything).Twice()

	presenter := NewSnapshotPresenter()
	ctrl := newTestController(repo, presenter, notifier)

	err := ctrl.Initialize(context.Background())
	assert.ErrorIs(t, err, database.ErrNoConnection)
	assert.Equal(t, []string{"All"}, presenter.Categories())
	assert.True(t, presenter.Table().Empty())
	assert.True(t, presenter.Chart().Empty())
	notifier.AssertExpectations(t)
}

func TestController_ApplyFiltersReplacesEverything(t *testing.T) {
	repo := new(MockRepository)
	repo.On("FetchAll", mock.Anything, database.TableGames).Return(scenarioGames(), nil)
	repo.On("FetchAll", mock.Anything, database.TableGenres).Return(scenarioGenres(), nil)

	presenter := new(MockPresenter)
	presenter.On("SetTable", mock.MatchedBy(func(tv TableViewModel) bool {
		return len(tv.Rows) == 1 && tv.Rows[0]["title"] == "B"
	})).Once()
	presenter.On("SetChart", mock.MatchedBy(func(cv ChartViewModel) bool {
		return len(cv.AxisLabels) == 1 && cv.AxisLabels[0] == "B"
	})).Once()
	presenter.On("UpdateSummary", Summary{Count: 1, Total: 5}).Once()

	ctrl := newTestController(repo, presenter, nil)

	report, err := ctrl.ApplyFilters(context.Background(), "b", "All")
	require.NoError(t, err)
	assert.Equal(t, report, ctrl.Last())
	presenter.AssertExpectations(t)
}

func TestController_ApplyFiltersAggregationFailureKeepsDisplay(t *testing.T) {
	repo := new(MockRepository)
	repo.On("FetchAll", mock.Anything, database.TableGames).Return(scenarioGames(), nil).Once()
	repo.On("FetchAll", mock.Anything, database.TableGenres).Return(scenarioGenres(), nil)

	presenter := NewSnapshotPresenter()
	notifier := new(MockNotifier)
	notifier.On("Notify", mock.Anything, mock.MatchedBy(func(n notifications.Notification) bool {
		return n.Visible && n.Severity == notifications.SeverityError
	})).Once()

	ctrl := newTestController(repo, presenter, notifier)

	first, err := ctrl.ApplyFilters(context.Background(), "", "All")
	require.NoError(t, err)

	repo.On("FetchAll", mock.Anything, database.TableGames).Return([]database.Row{
		row(gameColumns, "Broken", int64(1), "PC", "many"),
	}, nil)

	_, err = ctrl.ApplyFilters(context.Background(), "", "All")
	require.ErrorIs(t, err, ErrAggregation)

	assert.Equal(t, first, ctrl.Last())
	assert.Equal(t, Summary{Count: 2, Total: 15}, presenter.Summary())
	assert.Len(t, presenter.Table().Rows, 2)
	notifier.AssertExpectations(t)
}

func TestController_ApplyFiltersGatewayFailureShowsEmpty(t *testing.T) {
	repo := new(MockRepository)
	repo.On("FetchAll", mock.Anything, database.TableGames).
		Return(nil, &database.QueryError{Table: database.TableGames, Err: errors.New("broken pipe")})

	presenter := NewSnapshotPresenter()
	presenter.UpdateSummary(Summary{Count: 9, Total: 99})

	notifier := new(MockNotifier)
	notifier.On("Notify", mock.Anything, mock.Anything).Once()

	ctrl := newTestController(repo, presenter, notifier)

	report, err := ctrl.ApplyFilters(context.Background(), "x", "RPG")
	require.NoError(t, err)
	assert.Equal(t, Summary{}, report.Summary)
	assert.Equal(t, Summary{}, presenter.Summary())
	assert.True(t, presenter.Table().Empty())
	notifier.AssertExpectations(t)
}

func TestFailureMessage(t *testing.T) {
	assert.Contains(t, failureMessage(&AggregationError{Err: errors.New("x")}), "Could not total sales")
	assert.Contains(t, failureMessage(&ChartShapeError{Series: "Sales"}), "Could not draw chart")
	assert.Contains(t, failureMessage(errors.New("boom")), "Could not apply filters")
}
