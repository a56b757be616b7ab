package tasklist_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/slok/todochat/internal/app/tasklist"
	"github.com/slok/todochat/internal/log"
	"github.com/slok/todochat/internal/model"
	"github.com/slok/todochat/internal/storage"
	"github.com/slok/todochat/internal/storage/storagemock"
)

func TestNewService(t *testing.T) {
	tests := map[string]struct {
		config tasklist.ServiceConfig
		expErr bool
	}{
		"valid config should create service": {
			config: tasklist.ServiceConfig{
				Repository: &storagemock.MockTaskRepository{},
				Logger:     log.Noop,
			},
		},
		"missing repository should fail": {
			config: tasklist.ServiceConfig{Logger: log.Noop},
			expErr: true,
		},
		"nil logger should default to noop": {
			config: tasklist.ServiceConfig{Repository: &storagemock.MockTaskRepository{}},
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			require := require.New(t)

			svc, err := tasklist.NewService(test.config)

			if test.expErr {
				require.Error(err)
				require.Nil(svc)
			} else {
				require.NoError(err)
				require.NotNil(svc)
			}
		})
	}
}

func TestService_Run(t *testing.T) {
	pending := false

	tests := map[string]struct {
		mock     func(m *storagemock.MockTaskRepository)
		req      tasklist.Request
		expTasks []model.Task
		expErr   bool
	}{
		"list all tasks without filter": {
			mock: func(m *storagemock.MockTaskRepository) {
				m.On("ListTasks", mock.Anything, "alice", storage.ListTasksOptions{}).Once().Return([]model.Task{
					{ID: "t1", Title: "a"},
					{ID: "t2", Title: "b", Completed: true},
				}, nil)
			},
			req: tasklist.Request{OwnerID: "alice"},
			expTasks: []model.Task{
				{ID: "t1", Title: "a"},
				{ID: "t2", Title: "b", Completed: true},
			},
		},
		"list pending tasks with paging": {
			mock: func(m *storagemock.MockTaskRepository) {
				m.On("ListTasks", mock.Anything, "alice", storage.ListTasksOptions{Completed: &pending, Offset: 1, Limit: 2}).Once().Return([]model.Task{
					{ID: "t3", Title: "c"},
				}, nil)
			},
			req:      tasklist.Request{OwnerID: "alice", Completed: &pending, Offset: 1, Limit: 2},
			expTasks: []model.Task{{ID: "t3", Title: "c"}},
		},
		"missing owner should fail": {
			mock:   func(m *storagemock.MockTaskRepository) {},
			req:    tasklist.Request{},
			expErr: true,
		},
		"negative limit should fail": {
			mock:   func(m *storagemock.MockTaskRepository) {},
			req:    tasklist.Request{OwnerID: "alice", Limit: -1},
			expErr: true,
		},
		"repository error should propagate": {
			mock: func(m *storagemock.MockTaskRepository) {
				m.On("ListTasks", mock.Anything, "alice", mock.Anything).Once().Return(nil, fmt.Errorf("db error"))
			},
			req:    tasklist.Request{OwnerID: "alice"},
			expErr: true,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			assert := assert.New(t)
			require := require.New(t)

			m := &storagemock.MockTaskRepository{}
			test.mock(m)

			svc, err := tasklist.NewService(tasklist.ServiceConfig{Repository: m})
			require.NoError(err)

			tasks, err := svc.Run(context.Background(), test.req)

			if test.expErr {
				assert.Error(err)
			} else {
				require.NoError(err)
				assert.Equal(test.expTasks, tasks)
			}
			m.AssertExpectations(t)
		})
	}
}
