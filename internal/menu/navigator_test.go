package menu_test

import (
	"testing"

	"erpbot/chatbot-backend/internal"
	"erpbot/chatbot-backend/internal/menu"

	"github.com/stretchr/testify/require"
)

func TestTable_Select(t *testing.T) {
	t.Parallel()

	table := menu.Default()

	type testCase struct {
		name           string
		state          menu.State
		option         menu.Option
		expectedState  menu.State
		expectedAction menu.Action
	}

	testCases := []testCase{
		{
			name:           "forward move pushes the current key",
			state:          menu.State{Current: "mainMenu", History: []string{}},
			option:         menu.Option{Label: "LMS", Next: "lms"},
			expectedState:  menu.State{Current: "lms", History: []string{"mainMenu"}},
			expectedAction: menu.Action{Kind: menu.ActionShow, Node: "lms"},
		},
		{
			name:           "hand-off keeps the state",
			state:          menu.State{Current: "lms", History: []string{"mainMenu"}},
			option:         menu.Option{Label: "Register for the Demo", Next: "scheduleDemo"},
			expectedState:  menu.State{Current: "lms", History: []string{"mainMenu"}},
			expectedAction: menu.Action{Kind: menu.ActionHandoff, Node: "scheduleDemo"},
		},
		{
			name:           "query forwards text and keeps the state",
			state:          menu.State{Current: "moreDetails", History: []string{"mainMenu"}},
			option:         menu.Option{Label: "Ask", Query: "Do you support CBSE report cards?"},
			expectedState:  menu.State{Current: "moreDetails", History: []string{"mainMenu"}},
			expectedAction: menu.Action{Kind: menu.ActionQuery, Query: "Do you support CBSE report cards?"},
		},
		{
			name:           "next wins over query",
			state:          menu.State{Current: "mainMenu", History: []string{}},
			option:         menu.Option{Label: "Both", Next: "lms", Query: "ignored"},
			expectedState:  menu.State{Current: "lms", History: []string{"mainMenu"}},
			expectedAction: menu.Action{Kind: menu.ActionShow, Node: "lms"},
		},
		{
			name:           "empty option does nothing",
			state:          menu.State{Current: "mainMenu", History: []string{}},
			option:         menu.Option{Label: "Nothing"},
			expectedState:  menu.State{Current: "mainMenu", History: []string{}},
			expectedAction: menu.Action{Kind: menu.ActionNone},
		},
		{
			name:           "unknown target is not checked",
			state:          menu.State{Current: "mainMenu", History: []string{}},
			option:         menu.Option{Label: "Ghost", Next: "ghost"},
			expectedState:  menu.State{Current: "ghost", History: []string{"mainMenu"}},
			expectedAction: menu.Action{Kind: menu.ActionShow, Node: "ghost"},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			state, action := table.Select(tc.state, tc.option)
			require.Equal(t, tc.expectedState, state)
			require.Equal(t, tc.expectedAction, action)
		})
	}
}

func TestTable_SelectDoesNotAliasHistory(t *testing.T) {
	t.Parallel()

	table := menu.Default()
	history := make([]string, 1, 8)
	history[0] = "mainMenu"
	start := menu.State{Current: "schoolERP", History: history}

	first, _ := table.Select(start, menu.Option{Next: "schoolERPModules"})
	second, _ := table.Select(start, menu.Option{Next: "schoolERPFeatures"})

	require.Equal(t, []string{"mainMenu", "schoolERP"}, first.History)
	require.Equal(t, []string{"mainMenu", "schoolERP"}, second.History)
	require.Equal(t, []string{"mainMenu"}, start.History)
}

func TestTable_Navigation(t *testing.T) {
	t.Parallel()

	table := menu.Default()
	state := table.Begin()
	require.Equal(t, menu.State{Current: "mainMenu", History: []string{}}, state)

	var err error
	state, _, err = table.SelectLabel(state, "School ERP ")
	require.NoError(t, err)
	state, _, err = table.SelectLabel(state, "Learn about specific modules")
	require.NoError(t, err)
	state, _, err = table.SelectLabel(state, "Core Modules")
	require.NoError(t, err)
	require.Equal(t, menu.State{Current: "erpCoreModules", History: []string{"mainMenu", "schoolERP", "schoolERPModules"}}, state)

	state, action, err := table.SelectLabel(state, "Staff Payroll")
	require.NoError(t, err)
	require.Equal(t, menu.ActionShow, action.Kind)

	state, action, err = table.SelectLabel(state, "Register for the Demo")
	require.NoError(t, err)
	require.Equal(t, menu.ActionHandoff, action.Kind)
	require.Equal(t, "modStaffPayroll", state.Current)

	state = table.Back(state)
	require.Equal(t, "erpCoreModules", state.Current)
	state = table.Back(state)
	require.Equal(t, "schoolERPModules", state.Current)

	state = table.Restart()
	require.Equal(t, menu.State{Current: "mainMenu", History: []string{}}, state)

	state = table.Back(state)
	require.Equal(t, menu.State{Current: "mainMenu", History: []string{}}, state)
}

func TestTable_SelectLabel_Errors(t *testing.T) {
	t.Parallel()

	table := menu.Default()

	_, _, err := table.SelectLabel(table.Begin(), "Pricing")
	require.ErrorIs(t, err, internal.ErrOptionNotFound)

	_, _, err = table.SelectLabel(menu.State{Current: "ghost"}, "LMS")
	require.ErrorIs(t, err, internal.ErrMenuNodeUnknown)
}

func TestTable_Back(t *testing.T) {
	t.Parallel()

	table := menu.Default()

	type testCase struct {
		name     string
		state    menu.State
		expected menu.State
	}

	testCases := []testCase{
		{
			name:     "pops the last key",
			state:    menu.State{Current: "lmsModules", History: []string{"mainMenu", "lms"}},
			expected: menu.State{Current: "lms", History: []string{"mainMenu"}},
		},
		{
			name:     "empty history returns to start",
			state:    menu.State{Current: "lms"},
			expected: menu.State{Current: "mainMenu", History: []string{}},
		},
		{
			name:     "blank key returns to start",
			state:    menu.State{Current: "lms", History: []string{""}},
			expected: menu.State{Current: "mainMenu", History: []string{}},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			require.Equal(t, tc.expected, table.Back(tc.state))
		})
	}
}
