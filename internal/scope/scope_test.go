package scope

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/po-intake/internal/common"
	"github.com/joseph-ayodele/po-intake/internal/entity"
)

func tenCustomers() []entity.Customer {
	codes := []string{"AA", "BA", "CA", "DA", "EA", "FA", "GA", "HA", "IA", "DEFAULT"}
	out := make([]entity.Customer, len(codes))
	for i, c := range codes {
		out[i] = entity.Customer{Value: c, Label: fmt.Sprintf("Customer %s", c)}
	}
	return out
}

func TestResolve_Admin(t *testing.T) {
	dir := tenCustomers()
	s := NewResolver(common.ScopeFullDirectory, nil).Resolve(entity.Identity{IsAdmin: true}, dir)

	require.Len(t, s.Options, len(dir)+1)
	assert.Equal(t, entity.Customer{Value: "", Label: UnselectedLabel}, s.Options[0])
	assert.Equal(t, dir, s.Options[1:])
	assert.Empty(t, s.Selected)
	assert.False(t, s.Allows(""))
	assert.True(t, s.Allows("DEFAULT"))
}

func TestResolve_AssignedCustomer(t *testing.T) {
	s := NewResolver(common.ScopeFullDirectory, nil).Resolve(entity.Identity{CustomerCode: "BA"}, tenCustomers())

	require.Len(t, s.Options, 1)
	assert.Equal(t, entity.Customer{Value: "BA", Label: "Customer BA"}, s.Options[0])
	assert.Equal(t, "BA", s.Selected)
	assert.True(t, s.Allows("BA"))
	assert.False(t, s.Allows("CA"))
}

func TestResolve_AssignedCustomerMissingFromDirectory(t *testing.T) {
	s := NewResolver(common.ScopeFullDirectory, nil).Resolve(entity.Identity{CustomerCode: "ZZ"}, tenCustomers())

	require.Len(t, s.Options, 1)
	assert.Equal(t, entity.Customer{Value: "ZZ", Label: "ZZ"}, s.Options[0])
	assert.Equal(t, "ZZ", s.Selected)
}

func TestResolve_UnassignedPolicy(t *testing.T) {
	dir := tenCustomers()

	full := NewResolver(common.ScopeFullDirectory, nil).Resolve(entity.Identity{Username: "x"}, dir)
	assert.Equal(t, dir, full.Options)
	assert.Empty(t, full.Selected)

	empty := NewResolver(common.ScopeEmpty, nil).Resolve(entity.Identity{Username: "x"}, dir)
	assert.Empty(t, empty.Options)
	assert.Empty(t, empty.Selected)
}

type fakeShipTo struct {
	mu      sync.Mutex
	data    map[string]entity.ShipToMap
	fail    map[string]error
	calls   []string
	onFetch func(code string)
}

func (f *fakeShipTo) ShipTo(_ context.Context, code string) (entity.ShipToMap, error) {
	f.mu.Lock()
	f.calls = append(f.calls, code)
	hook := f.onFetch
	f.mu.Unlock()
	if hook != nil {
		hook(code)
	}
	if err := f.fail[code]; err != nil {
		return nil, err
	}
	return f.data[code], nil
}

func TestShipToTracker_Refresh(t *testing.T) {
	src := &fakeShipTo{data: map[string]entity.ShipToMap{"BA": {"1001": "12 Dock Rd"}}}
	tr := NewShipToTracker(src, nil)

	got, err := tr.Refresh(context.Background(), "BA")

	require.NoError(t, err)
	assert.Equal(t, entity.ShipToMap{"1001": "12 Dock Rd"}, got)
	code, cur := tr.Current()
	assert.Equal(t, "BA", code)
	assert.Equal(t, got, cur)
}

func TestShipToTracker_EmptyCodeSkipsLookup(t *testing.T) {
	src := &fakeShipTo{data: map[string]entity.ShipToMap{"BA": {"1": "x"}}}
	tr := NewShipToTracker(src, nil)
	_, err := tr.Refresh(context.Background(), "BA")
	require.NoError(t, err)

	got, err := tr.Refresh(context.Background(), "")

	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Equal(t, []string{"BA"}, src.calls)
	_, cur := tr.Current()
	assert.Empty(t, cur)
}

func TestShipToTracker_FailureLeavesEmpty(t *testing.T) {
	src := &fakeShipTo{
		data: map[string]entity.ShipToMap{"BA": {"1": "x"}},
		fail: map[string]error{"CA": errors.New("directory down")},
	}
	tr := NewShipToTracker(src, nil)
	_, err := tr.Refresh(context.Background(), "BA")
	require.NoError(t, err)

	got, err := tr.Refresh(context.Background(), "CA")

	require.Error(t, err)
	assert.Equal(t, common.CodeDependency, common.CodeOf(err))
	assert.Empty(t, got)
	code, cur := tr.Current()
	assert.Equal(t, "CA", code)
	assert.Empty(t, cur)
}

func TestShipToTracker_StaleResponseDropped(t *testing.T) {
	src := &fakeShipTo{data: map[string]entity.ShipToMap{
		"BA": {"1": "old"},
		"CA": {"2": "new"},
	}}
	tr := NewShipToTracker(src, nil)

	// While BA is in flight the customer switches to CA.
	src.onFetch = func(code string) {
		if code != "BA" {
			return
		}
		src.onFetch = nil
		_, err := tr.Refresh(context.Background(), "CA")
		require.NoError(t, err)
	}

	got, err := tr.Refresh(context.Background(), "BA")

	require.NoError(t, err)
	assert.Empty(t, got)
	code, cur := tr.Current()
	assert.Equal(t, "CA", code)
	assert.Equal(t, entity.ShipToMap{"2": "new"}, cur)
}

func TestShipToTracker_Clear(t *testing.T) {
	src := &fakeShipTo{data: map[string]entity.ShipToMap{"BA": {"1": "x"}}}
	tr := NewShipToTracker(src, nil)
	_, _ = tr.Refresh(context.Background(), "BA")

	tr.Clear()

	code, cur := tr.Current()
	assert.Empty(t, code)
	assert.Empty(t, cur)
}
