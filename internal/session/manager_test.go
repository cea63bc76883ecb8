package session

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/panel-configurator/backend/internal/catalog"
	"github.com/panel-configurator/backend/internal/design"
	"github.com/panel-configurator/backend/internal/input"
	"github.com/panel-configurator/backend/internal/layout"
	"github.com/panel-configurator/backend/internal/logging"
	"github.com/panel-configurator/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newManager(t *testing.T, max int) (*Manager, *fakeClock, *catalog.Catalog) {
	t.Helper()
	clock := &fakeClock{now: time.Date(2026, 6, 1, 8, 0, 0, 0, time.UTC)}
	layouts := layout.MustDefault()
	m := NewManager(layouts, Options{
		MaxSessions: max,
		KeepAlive:   time.Minute,
		Logger:      logging.Discard(),
		Now:         clock.Now,
	})
	return m, clock, catalog.MustDefault(layouts)
}

func TestCreateAndGet(t *testing.T) {
	m, _, _ := newManager(t, 10)

	st, err := m.Create(models.PanelDoubleHorizontal)
	require.NoError(t, err)
	assert.NotEmpty(t, st.ID)
	assert.Equal(t, 18, st.CellCount)
	assert.Len(t, st.Cells, 18)
	assert.Equal(t, 1, st.Quantity)
	assert.Nil(t, st.EditingIndex)
	assert.False(t, st.CanFinalize)
	assert.Equal(t, input.SelectedNothing, st.Selection.Kind)

	got, err := m.Get(st.ID)
	require.NoError(t, err)
	assert.Equal(t, st.ID, got.ID)
	assert.Equal(t, 1, m.Count())

	_, err = m.Create("QUAD")
	assert.True(t, errors.Is(err, layout.ErrUnknownPanelType))

	_, err = m.Get("missing")
	assert.True(t, errors.Is(err, ErrSessionNotFound))
}

func TestWithSerializesMutations(t *testing.T) {
	m, _, cat := newManager(t, 10)
	st, err := m.Create(models.PanelSingle)
	require.NoError(t, err)

	// Many concurrent placements of the singleton: exactly one wins.
	var wg sync.WaitGroup
	accepted := make(chan int, 9)
	for cell := 0; cell < 9; cell++ {
		wg.Add(1)
		go func(cell int) {
			defer wg.Done()
			_ = m.With(st.ID, func(s *Session) error {
				out, err := s.Dispatch(cat, input.PlaceNew{IconID: "PIR1", Cell: cell})
				if err == nil && out.Changed {
					accepted <- cell
				}
				return err
			})
		}(cell)
	}
	wg.Wait()
	close(accepted)

	var cells []int
	for c := range accepted {
		cells = append(cells, c)
	}
	assert.Len(t, cells, 1)

	got, err := m.Get(st.ID)
	require.NoError(t, err)
	pirs := 0
	for _, c := range got.Cells {
		if c.Icon != nil && c.Icon.Category == models.CategoryPIR {
			pirs++
		}
	}
	assert.Equal(t, 1, pirs)
}

func TestDispatchClearsSelection(t *testing.T) {
	m, _, cat := newManager(t, 10)
	st, err := m.Create(models.PanelSingle)
	require.NoError(t, err)

	err = m.With(st.ID, func(s *Session) error {
		s.Selection().ClickIcon("L1")
		cmd, ok := s.Selection().ClickCell(4, false)
		require.True(t, ok)
		s.Selection().ClickIcon("G1")
		out, err := s.Dispatch(cat, cmd)
		require.NoError(t, err)
		assert.True(t, out.Changed)
		assert.Equal(t, input.SelectedNothing, s.Selection().Current().Kind)
		return nil
	})
	require.NoError(t, err)
}

func TestStyleAndAssemble(t *testing.T) {
	m, _, _ := newManager(t, 10)
	st, err := m.Create(models.PanelTAG)
	require.NoError(t, err)

	err = m.With(st.ID, func(s *Session) error {
		_, err := s.Assemble()
		assert.True(t, errors.Is(err, design.ErrNotFinalizable))

		s.SetStyle(models.StyleParameters{Backbox: "BB-86"}, 0)
		assert.Equal(t, 1, s.Quantity())

		d, err := s.Assemble()
		require.NoError(t, err)
		assert.Equal(t, models.PanelTAG, d.PanelType)
		assert.Len(t, d.Cells, 9)
		return nil
	})
	require.NoError(t, err)

	got, err := m.Get(st.ID)
	require.NoError(t, err)
	assert.True(t, got.CanFinalize)
	assert.Empty(t, got.Issues)
}

func TestCreateFromDesign(t *testing.T) {
	m, _, cat := newManager(t, 10)

	pir := "PIR1"
	d := models.Design{
		ID:        "d1",
		PanelType: models.PanelDoubleVertical,
		Cells:     make([]models.DesignCell, 18),
		Style:     models.StyleParameters{Backbox: "BB", FontFamily: "Inter"},
		Quantity:  4,
	}
	for i := range d.Cells {
		d.Cells[i].Cell = i
	}
	d.Cells[12].IconID = &pir
	d.Cells[12].Label = "Motion"

	st, err := m.CreateFromDesign(3, d, cat)
	require.NoError(t, err)
	require.NotNil(t, st.EditingIndex)
	assert.Equal(t, 3, *st.EditingIndex)
	assert.Equal(t, 4, st.Quantity)
	require.NoError(t, m.With(st.ID, func(s *Session) error {
		assert.Equal(t, "d1", s.EditingDesignID())
		return nil
	}))
	assert.Equal(t, "Inter", st.Style.FontFamily)
	require.NotNil(t, st.Cells[12].Icon)
	assert.Equal(t, "PIR1", st.Cells[12].Icon.ID)
	assert.Equal(t, "Motion", st.Cells[12].Text)

	// A design that breaks the rules cannot be reopened.
	pir2 := "PIR2"
	d.Cells[0].IconID = &pir2
	_, err = m.CreateFromDesign(3, d, cat)
	require.Error(t, err)
	assert.Equal(t, 1, m.Count())
}

func TestEvictionAndCleanup(t *testing.T) {
	m, clock, _ := newManager(t, 2)

	a, err := m.Create(models.PanelSingle)
	require.NoError(t, err)
	clock.Advance(10 * time.Second)
	b, err := m.Create(models.PanelSingle)
	require.NoError(t, err)

	// Both sessions are inside the keep-alive window.
	_, err = m.Create(models.PanelSingle)
	assert.True(t, errors.Is(err, ErrTooManySessions))

	clock.Advance(2 * time.Minute)
	assert.True(t, m.Touch(a.ID))

	// b is now the least recently used and idle long enough.
	clock.Advance(time.Second)
	c, err := m.Create(models.PanelSingle)
	require.NoError(t, err)
	_, err = m.Get(b.ID)
	assert.True(t, errors.Is(err, ErrSessionNotFound))
	assert.Equal(t, []string{c.ID, a.ID}, m.IDs())

	clock.Advance(30 * time.Minute)
	assert.True(t, m.Touch(c.ID))
	assert.Equal(t, 1, m.CleanupOldSessions(10*time.Minute))
	assert.Equal(t, 1, m.Count())

	assert.True(t, m.Delete(c.ID))
	assert.False(t, m.Delete(c.ID))
	assert.False(t, m.Touch(c.ID))
	assert.Equal(t, 0, m.Count())
}
