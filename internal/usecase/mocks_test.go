// File: internal/usecase/mocks_test.go
package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v4"

	"shorts-factory/internal/domain"
	"shorts-factory/internal/domain/model"
	"shorts-factory/internal/domain/ports/adapter"
	"shorts-factory/internal/domain/ports/repository"
)

// ---- In-memory job repository ----

type progressWrite struct {
	Progress int
	Message  string
	Status   *model.JobStatus
}

type memJobRepo struct {
	mu        sync.Mutex
	store     map[string]*model.Job
	progress  map[string][]progressWrite // writes per job, in order
	createErr error
}

func newMemJobRepo() *memJobRepo {
	return &memJobRepo{store: map[string]*model.Job{}, progress: map[string][]progressWrite{}}
}

func (m *memJobRepo) Create(ctx context.Context, tx repository.Tx, job *model.Job) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *job
	m.store[job.ID] = &cp
	return nil
}

func (m *memJobRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	j, ok := m.store[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *j
	return &cp, nil
}

func (m *memJobRepo) List(ctx context.Context, tx repository.Tx, f repository.JobFilter) ([]*model.Job, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.Job
	for _, j := range m.store {
		if f.UserID != "" && j.UserID != f.UserID {
			continue
		}
		if f.Status != "" && j.Status != f.Status {
			continue
		}
		cp := *j
		out = append(out, &cp)
	}
	return out, len(out), nil
}

func (m *memJobRepo) Status(ctx context.Context, tx repository.Tx, id string) (*model.JobStatusView, error) {
	j, err := m.FindByID(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	return j.StatusView(), nil
}

func (m *memJobRepo) UpdateProgress(ctx context.Context, tx repository.Tx, id string, progress int, message string, status *model.JobStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	j, ok := m.store[id]
	if !ok {
		return domain.ErrNotFound
	}
	m.progress[id] = append(m.progress[id], progressWrite{Progress: progress, Message: message, Status: status})
	j.Progress = progress
	j.ProgressMessage = message
	if status != nil {
		j.Status = *status
		if status.Terminal() {
			now := time.Now().UTC()
			j.CompletedAt = &now
		}
	}
	if progress == model.ProgressFailed {
		j.Status = model.JobStatusFailed
		j.ErrorMessage = message
		now := time.Now().UTC()
		j.CompletedAt = &now
	}
	j.UpdatedAt = time.Now().UTC()
	return nil
}

func (m *memJobRepo) UpdateCompletion(ctx context.Context, tx repository.Tx, id string, out model.JobOutput) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	j, ok := m.store[id]
	if !ok {
		return domain.ErrNotFound
	}
	j.Status = model.JobStatusCompleted
	j.Progress = model.ProgressDone
	j.ProgressMessage = "Completed"
	j.OutputLocation = out.OutputLocation
	j.YouTubeVideoID = out.YouTubeVideoID
	j.YouTubeURL = out.YouTubeURL
	now := time.Now().UTC()
	j.CompletedAt = &now
	j.UpdatedAt = now
	return nil
}

func (m *memJobRepo) ClaimPending(ctx context.Context, id string) (*model.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	j, ok := m.store[id]
	if !ok || j.Status != model.JobStatusPending {
		return nil, domain.ErrNotFound
	}
	j.Status = model.JobStatusProcessing
	cp := *j
	return &cp, nil
}

func (m *memJobRepo) FetchAndMarkProcessing(ctx context.Context) (*model.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, j := range m.store {
		if j.Status == model.JobStatusPending {
			j.Status = model.JobStatusProcessing
			cp := *j
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *memJobRepo) writes(id string) []progressWrite {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]progressWrite(nil), m.progress[id]...)
}

// ---- In-memory credential repository ----

type memCredRepo struct {
	mu    sync.Mutex
	store map[string]*model.CredentialRecord // by record ID
}

func newMemCredRepo() *memCredRepo {
	return &memCredRepo{store: map[string]*model.CredentialRecord{}}
}

func (m *memCredRepo) GetActive(ctx context.Context, tx repository.Tx, userID string) (*model.CredentialRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.store {
		if r.UserID == userID && r.IsActive {
			cp := *r
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *memCredRepo) ListForUser(ctx context.Context, tx repository.Tx, userID string) ([]*model.CredentialRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.CredentialRecord
	for _, r := range m.store {
		if r.UserID == userID {
			cp := *r
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *memCredRepo) DeactivateAll(ctx context.Context, tx repository.Tx, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.store {
		if r.UserID == userID {
			r.IsActive = false
		}
	}
	return nil
}

func (m *memCredRepo) Insert(ctx context.Context, tx repository.Tx, rec *model.CredentialRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *rec
	m.store[rec.ID] = &cp
	return nil
}

func (m *memCredRepo) UpdateTokens(ctx context.Context, tx repository.Tx, rec *model.CredentialRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.store[rec.ID]
	if !ok {
		return domain.ErrNotFound
	}
	stored.AccessTokenEncrypted = rec.AccessTokenEncrypted
	stored.RefreshTokenEncrypted = rec.RefreshTokenEncrypted
	stored.TokenExpiresAt = rec.TokenExpiresAt
	stored.Scopes = rec.Scopes
	stored.Authenticated = rec.Authenticated
	stored.LastRefreshAttempt = rec.LastRefreshAttempt
	stored.UpdatedAt = rec.UpdatedAt
	return nil
}

func (m *memCredRepo) TouchLastUsed(ctx context.Context, tx repository.Tx, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.store[id]
	if !ok {
		return domain.ErrNotFound
	}
	now := time.Now().UTC()
	r.LastUsedAt = &now
	return nil
}

func (m *memCredRepo) get(id string) *model.CredentialRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	r := m.store[id]
	if r == nil {
		return nil
	}
	cp := *r
	return &cp
}

// ---- Transaction manager passthrough ----

type noopTM struct{}

func (noopTM) WithTx(ctx context.Context, _ pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error {
	return fn(ctx, nil)
}

// ---- Reversible fake cipher ----

type fakeCipher struct{}

func (fakeCipher) Encrypt(plaintext string) (string, error) {
	if plaintext == "" {
		return "", domain.ErrCrypto
	}
	return "enc:" + plaintext, nil
}

func (fakeCipher) Decrypt(ciphertext string) (string, error) {
	if len(ciphertext) < 4 || ciphertext[:4] != "enc:" {
		return "", domain.ErrCrypto
	}
	return ciphertext[4:], nil
}

// ---- In-memory locker ----

type mockLocker struct {
	mu   sync.Mutex
	held map[string]string
	busy bool // force TryLock rejection
}

func newMockLocker() *mockLocker {
	return &mockLocker{held: map[string]string{}}
}

func (l *mockLocker) TryLock(ctx context.Context, key string, ttl time.Duration) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.busy {
		return "", domain.ErrLockBusy
	}
	if _, ok := l.held[key]; ok {
		return "", domain.ErrLockBusy
	}
	token := fmt.Sprintf("tok-%d", len(l.held)+1)
	l.held[key] = token
	return token, nil
}

func (l *mockLocker) Unlock(ctx context.Context, key, token string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held[key] == token {
		delete(l.held, key)
	}
	return nil
}

// ---- Function-field stage and adapter mocks ----

type mockRefresher struct {
	AuthURLFn  func(creds model.ClientCredentials, state string) string
	ExchangeFn func(ctx context.Context, creds model.ClientCredentials, code string) (*adapter.TokenSet, error)
	RefreshFn  func(ctx context.Context, creds model.ClientCredentials, refreshToken string) (*adapter.TokenSet, error)

	refreshCalls int
}

func (m *mockRefresher) AuthURL(creds model.ClientCredentials, state string) string {
	if m.AuthURLFn != nil {
		return m.AuthURLFn(creds, state)
	}
	return "https://accounts.example.com/auth?state=" + state
}

func (m *mockRefresher) Exchange(ctx context.Context, creds model.ClientCredentials, code string) (*adapter.TokenSet, error) {
	if m.ExchangeFn != nil {
		return m.ExchangeFn(ctx, creds, code)
	}
	return nil, fmt.Errorf("exchange not configured")
}

func (m *mockRefresher) Refresh(ctx context.Context, creds model.ClientCredentials, refreshToken string) (*adapter.TokenSet, error) {
	m.refreshCalls++
	if m.RefreshFn != nil {
		return m.RefreshFn(ctx, creds, refreshToken)
	}
	return nil, fmt.Errorf("refresh not configured")
}

type mockSpeech struct {
	SynthesizeFn func(ctx context.Context, text, voice string) (*model.SpeechResult, error)
	calls        int
}

func (m *mockSpeech) Synthesize(ctx context.Context, text, voice string) (*model.SpeechResult, error) {
	m.calls++
	return m.SynthesizeFn(ctx, text, voice)
}

type mockMedia struct {
	CombineFn func(ctx context.Context, videoLocation, audioPath, title string) (*model.MediaResult, error)
	calls     int
}

func (m *mockMedia) Combine(ctx context.Context, videoLocation, audioPath, title string) (*model.MediaResult, error) {
	m.calls++
	return m.CombineFn(ctx, videoLocation, audioPath, title)
}

type mockUploader struct {
	ValidateFn func(meta adapter.UploadMetadata) error
	UploadFn   func(ctx context.Context, token, localPath string, meta adapter.UploadMetadata) (*model.UploadResult, error)
	calls      int
}

func (m *mockUploader) ValidateMetadata(meta adapter.UploadMetadata) error {
	if m.ValidateFn != nil {
		return m.ValidateFn(meta)
	}
	return nil
}

func (m *mockUploader) Upload(ctx context.Context, token, localPath string, meta adapter.UploadMetadata) (*model.UploadResult, error) {
	m.calls++
	return m.UploadFn(ctx, token, localPath, meta)
}

type mockBlob struct {
	ResolveFn func(ctx context.Context, uri string) (string, error)
	PutFn     func(ctx context.Context, localPath, destinationHint string) (string, error)
	putCalls  int
}

func (m *mockBlob) ResolveToLocal(ctx context.Context, uri string) (string, error) {
	if m.ResolveFn != nil {
		return m.ResolveFn(ctx, uri)
	}
	return uri, nil
}

func (m *mockBlob) Put(ctx context.Context, localPath, destinationHint string) (string, error) {
	m.putCalls++
	if m.PutFn != nil {
		return m.PutFn(ctx, localPath, destinationHint)
	}
	return "s3://shorts/" + destinationHint, nil
}

type mockVault struct {
	TokenFn func(ctx context.Context, userID string, autoRefresh bool) (string, error)
}

func (m *mockVault) StoreClientCredentials(ctx context.Context, userID string, raw []byte) (*model.CredentialStatus, error) {
	return nil, fmt.Errorf("not implemented")
}
func (m *mockVault) ClientCredentials(ctx context.Context, userID string) (*model.ClientCredentials, error) {
	return nil, fmt.Errorf("not implemented")
}
func (m *mockVault) ValidAccessToken(ctx context.Context, userID string, autoRefresh bool) (string, error) {
	return m.TokenFn(ctx, userID, autoRefresh)
}
func (m *mockVault) AuthorizationURL(ctx context.Context, userID, state string) (string, error) {
	return "", fmt.Errorf("not implemented")
}
func (m *mockVault) CompleteAuthorization(ctx context.Context, userID, code string) error {
	return fmt.Errorf("not implemented")
}
func (m *mockVault) Refresh(ctx context.Context, userID string, force bool) error {
	return fmt.Errorf("not implemented")
}
func (m *mockVault) Revoke(ctx context.Context, userID string) error {
	return fmt.Errorf("not implemented")
}
func (m *mockVault) Status(ctx context.Context, userID string) (*model.CredentialStatus, error) {
	return nil, fmt.Errorf("not implemented")
}

type mockDispatcher struct {
	DispatchFn func(jobID string) error
	dispatched []string
}

func (m *mockDispatcher) Dispatch(jobID string) error {
	m.dispatched = append(m.dispatched, jobID)
	if m.DispatchFn != nil {
		return m.DispatchFn(jobID)
	}
	return nil
}
