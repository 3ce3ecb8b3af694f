package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/example/freelosync/internal/core/identity"
	"github.com/example/freelosync/internal/core/marker"
	"github.com/example/freelosync/internal/models"
	"github.com/example/freelosync/internal/ports/secondary"
)

var testParent = models.ParentSelector{Kind: models.ParentTasklist, ProjectID: 10, ID: 20}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// Ensure fakes implement the interfaces
var (
	_ secondary.IssueTracker = (*fakeIssueTracker)(nil)
	_ secondary.TaskTracker  = (*fakeTaskTracker)(nil)
)

// callLog records method names in call order.
type callLog struct {
	mu    sync.Mutex
	calls []string
}

func (l *callLog) record(name string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls = append(l.calls, name)
}

func (l *callLog) count(name string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for _, c := range l.calls {
		if c == name {
			n++
		}
	}
	return n
}

func (l *callLog) reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls = nil
}

func (l *callLog) all() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.calls...)
}

// fakeIssueTracker is an in-memory GitHub repository.
type fakeIssueTracker struct {
	callLog
	mu            sync.Mutex
	comments      map[int][]models.Comment
	openIssues    []models.Issue
	nextCommentID int64
	listErr       map[int]error
	createErr     error
	login         string
	loginErr      error
}

func newFakeIssueTracker() *fakeIssueTracker {
	return &fakeIssueTracker{
		comments:      make(map[int][]models.Comment),
		listErr:       make(map[int]error),
		nextCommentID: 1000,
		login:         "octocat",
	}
}

func (f *fakeIssueTracker) addComment(issueNumber int, author, body string) models.Comment {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextCommentID++
	c := models.Comment{ID: f.nextCommentID, IssueNumber: issueNumber, Author: author, Body: body}
	f.comments[issueNumber] = append(f.comments[issueNumber], c)
	return c
}

func (f *fakeIssueTracker) trackingComments(codec marker.Codec, issueNumber int) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.comments[issueNumber] {
		if codec.IsTrackingComment(c) {
			n++
		}
	}
	return n
}

func (f *fakeIssueTracker) ListComments(ctx context.Context, issueNumber int) ([]models.Comment, error) {
	f.record("ListComments")
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.listErr[issueNumber]; err != nil {
		return nil, err
	}
	return append([]models.Comment(nil), f.comments[issueNumber]...), nil
}

func (f *fakeIssueTracker) CreateComment(ctx context.Context, issueNumber int, body string) (*models.Comment, error) {
	f.record("CreateComment")
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.mu.Lock()
	author := f.login
	f.mu.Unlock()
	if author == "" {
		author = marker.ActionsBotLogin
	}
	c := f.addComment(issueNumber, author, body)
	return &c, nil
}

func (f *fakeIssueTracker) ListOpenIssues(ctx context.Context) ([]models.Issue, error) {
	f.record("ListOpenIssues")
	return f.openIssues, nil
}

// CurrentLogin mimics GitHub: an installation token gets a 403 on /user.
func (f *fakeIssueTracker) CurrentLogin(ctx context.Context) (string, error) {
	f.record("CurrentLogin")
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.login, f.loginErr
}

// asInstallationToken makes the fake behave like a workflow token.
func (f *fakeIssueTracker) asInstallationToken() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.login = ""
	f.loginErr = &models.RemoteError{Service: "github", Operation: "get authenticated user", StatusCode: 403}
}

// fakeTaskTracker is an in-memory Freelo account.
type fakeTaskTracker struct {
	callLog
	mu            sync.Mutex
	tasks         map[int64]*models.Task
	nextTaskID    int64
	nextCommentID int64
	failOn        map[string]error
	failTask      map[int64]error
}

func newFakeTaskTracker() *fakeTaskTracker {
	return &fakeTaskTracker{
		tasks:         make(map[int64]*models.Task),
		nextTaskID:    500,
		nextCommentID: 9000,
		failOn:        make(map[string]error),
		failTask:      make(map[int64]error),
	}
}

func (f *fakeTaskTracker) fail(method string, taskID int64) error {
	f.record(method)
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failOn[method]; err != nil {
		return err
	}
	return f.failTask[taskID]
}

func (f *fakeTaskTracker) task(id int64) (*models.Task, error) {
	t, ok := f.tasks[id]
	if !ok {
		return nil, &models.RemoteError{Service: "freelo", Operation: "get task", StatusCode: 404, Body: "not found"}
	}
	return t, nil
}

func (f *fakeTaskTracker) addTask(t models.Task) *models.Task {
	f.mu.Lock()
	defer f.mu.Unlock()
	copied := t
	f.tasks[t.ID] = &copied
	return &copied
}

func (f *fakeTaskTracker) CreateTask(ctx context.Context, parent models.ParentSelector, nt models.NewTask) (*models.Task, error) {
	if err := f.fail("CreateTask", 0); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextTaskID++
	t := &models.Task{ID: f.nextTaskID, Name: nt.Name, Description: nt.Content, Labels: nt.Labels, State: models.TaskStateActive}
	f.tasks[t.ID] = t
	return t, nil
}

func (f *fakeTaskTracker) UpdateTaskTitle(ctx context.Context, taskID int64, name string) error {
	if err := f.fail("UpdateTaskTitle", taskID); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	t, err := f.task(taskID)
	if err != nil {
		return err
	}
	t.Name = name
	return nil
}

func (f *fakeTaskTracker) UpdateTaskLabels(ctx context.Context, taskID int64, labels []models.Label) error {
	if err := f.fail("UpdateTaskLabels", taskID); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	t, err := f.task(taskID)
	if err != nil {
		return err
	}
	t.Labels = labels
	return nil
}

func (f *fakeTaskTracker) UpdateTaskDescription(ctx context.Context, taskID int64, content string, labels []models.Label) error {
	if err := f.fail("UpdateTaskDescription", taskID); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	t, err := f.task(taskID)
	if err != nil {
		return err
	}
	t.Description = content
	return nil
}

func (f *fakeTaskTracker) FinishTask(ctx context.Context, taskID int64) error {
	return f.setState("FinishTask", taskID, models.TaskStateFinished)
}

func (f *fakeTaskTracker) ActivateTask(ctx context.Context, taskID int64) error {
	return f.setState("ActivateTask", taskID, models.TaskStateActive)
}

func (f *fakeTaskTracker) setState(method string, taskID int64, state models.TaskState) error {
	if err := f.fail(method, taskID); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	t, err := f.task(taskID)
	if err != nil {
		return err
	}
	t.State = state
	return nil
}

func (f *fakeTaskTracker) SetTaskWorker(ctx context.Context, taskID int64, workerID int64) error {
	if err := f.fail("SetTaskWorker", taskID); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	t, err := f.task(taskID)
	if err != nil {
		return err
	}
	t.WorkerID = workerID
	return nil
}

func (f *fakeTaskTracker) GetTask(ctx context.Context, taskID int64) (*models.Task, error) {
	if err := f.fail("GetTask", taskID); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	t, err := f.task(taskID)
	if err != nil {
		return nil, err
	}
	copied := *t
	copied.Comments = append([]models.TaskComment(nil), t.Comments...)
	return &copied, nil
}

func (f *fakeTaskTracker) CreateTaskComment(ctx context.Context, taskID int64, content string) (*models.TaskComment, error) {
	if err := f.fail("CreateTaskComment", taskID); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	t, err := f.task(taskID)
	if err != nil {
		return nil, err
	}
	f.nextCommentID++
	c := models.TaskComment{ID: f.nextCommentID, Content: content}
	t.Comments = append(t.Comments, c)
	return &c, nil
}

func (f *fakeTaskTracker) UpdateTaskComment(ctx context.Context, commentID int64, content string) error {
	if err := f.fail("UpdateTaskComment", 0); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, t := range f.tasks {
		for i := range t.Comments {
			if t.Comments[i].ID == commentID {
				t.Comments[i].Content = content
				return nil
			}
		}
	}
	return fmt.Errorf("comment %d not found", commentID)
}

func (f *fakeTaskTracker) DeleteTaskComment(ctx context.Context, commentID int64) error {
	if err := f.fail("DeleteTaskComment", 0); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, t := range f.tasks {
		for i := range t.Comments {
			if t.Comments[i].ID == commentID {
				t.Comments = append(t.Comments[:i], t.Comments[i+1:]...)
				return nil
			}
		}
	}
	return fmt.Errorf("comment %d not found", commentID)
}

func (f *fakeTaskTracker) CurrentUser(ctx context.Context) (*secondary.RemoteUser, error) {
	if err := f.fail("CurrentUser", 0); err != nil {
		return nil, err
	}
	return &secondary.RemoteUser{ID: 1, Fullname: "Sync Bot", Email: "bot@example.com"}, nil
}

// mutatingCalls lists the TaskTracker calls that change state.
var mutatingCalls = []string{
	"CreateTask", "UpdateTaskTitle", "UpdateTaskLabels", "UpdateTaskDescription",
	"FinishTask", "ActivateTask", "SetTaskWorker",
	"CreateTaskComment", "UpdateTaskComment", "DeleteTaskComment",
}

func (f *fakeTaskTracker) mutations() int {
	n := 0
	for _, m := range mutatingCalls {
		n += f.count(m)
	}
	return n
}

// testEnv bundles a service with its fakes.
type testEnv struct {
	issues  *fakeIssueTracker
	tasks   *fakeTaskTracker
	codec   marker.Codec
	service *SyncServiceImpl
}

type envOption func(*SyncServiceConfig)

func withDryRun() envOption {
	return func(c *SyncServiceConfig) { c.DryRun = true }
}

func withParent(p models.ParentSelector) envOption {
	return func(c *SyncServiceConfig) { c.Parent = p }
}

func newTestEnv(identities map[string]int64, opts ...envOption) *testEnv {
	cfg := SyncServiceConfig{Parent: testParent, Concurrency: 4}
	for _, opt := range opts {
		opt(&cfg)
	}

	issues := newFakeIssueTracker()
	tasks := newFakeTaskTracker()
	logger := discardLogger()
	botLogin, err := ResolveBotLogin(context.Background(), issues, "", logger)
	if err != nil {
		panic(err)
	}
	issues.reset()
	codec := marker.NewCodec("", botLogin)
	executor := NewEffectExecutor(issues, tasks, codec, logger, cfg.DryRun)

	return &testEnv{
		issues:  issues,
		tasks:   tasks,
		codec:   codec,
		service: NewSyncService(issues, tasks, executor, identity.New(identities), codec, cfg, logger),
	}
}

// link posts a tracking comment for an existing task.
func (e *testEnv) link(issueNumber int, task models.Task) {
	e.tasks.addTask(task)
	e.issues.addComment(issueNumber, e.issues.login, e.codec.TrackingCommentBody(task.ID))
}

func issueEvent(action models.Action, issue models.Issue) models.Event {
	return models.Event{Kind: models.EventIssues, Action: action, Issue: issue}
}

func commentEvent(action models.Action, issue models.Issue, comment models.Comment) models.Event {
	comment.IssueNumber = issue.Number
	return models.Event{Kind: models.EventIssueComment, Action: action, Issue: issue, Comment: &comment}
}
