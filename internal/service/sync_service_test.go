package service

import (
	"fmt"
	"testing"
	"time"

	"thus-sync-server/internal/domain"
	"thus-sync-server/pkg/response"
)

type syncFixture struct {
	service     *SyncService
	threadRepo  *mockThreadRepository
	commentRepo *mockCommentRepository
	contentRepo *mockContentRepository
	memberRepo  *mockMemberRepository
	notifier    *mockNotifier
}

func newSyncFixture() *syncFixture {
	threadRepo := newMockThreadRepository()
	commentRepo := newMockCommentRepository()
	contentRepo := newMockContentRepository()
	memberRepo := newMockMemberRepository()
	notifier := &mockNotifier{}

	spaces := NewSpaceService(newMockSpaceRepository(), memberRepo)
	svc := NewSyncService(threadRepo, commentRepo, contentRepo, spaces, notifier)

	return &syncFixture{
		service:     svc,
		threadRepo:  threadRepo,
		commentRepo: commentRepo,
		contentRepo: contentRepo,
		memberRepo:  memberRepo,
		notifier:    notifier,
	}
}

func strPtr(s string) *string { return &s }

func TestSyncService_ResultsMatchInputOrder(t *testing.T) {
	f := newSyncFixture()

	var atoms []domain.Atom
	for i := 0; i < 5; i++ {
		atoms = append(atoms, domain.Atom{
			TaskType: domain.TaskThreadPost,
			TaskID:   fmt.Sprintf("task-%d", i),
			Thread:   &domain.ThreadPayload{Title: strPtr(fmt.Sprintf("thread %d", i))},
		})
	}

	results := f.service.Process("user-1", BatchMutate, atoms)

	if len(results) != len(atoms) {
		t.Fatalf("Process() returned %d results, want %d", len(results), len(atoms))
	}
	for i, result := range results {
		if result.TaskID != atoms[i].TaskID {
			t.Errorf("result %d taskId = %q, want %q", i, result.TaskID, atoms[i].TaskID)
		}
		if result.Code != response.CodeOK {
			t.Errorf("result %d code = %q, want %q", i, result.Code, response.CodeOK)
		}
	}
}

func TestSyncService_PostThread(t *testing.T) {
	t.Run("without first_id the new id doubles as first_id", func(t *testing.T) {
		f := newSyncFixture()

		results := f.service.Process("user-1", BatchMutate, []domain.Atom{{
			TaskType: domain.TaskThreadPost,
			TaskID:   "t1",
			Thread:   &domain.ThreadPayload{Title: strPtr("hello")},
		}})

		r := results[0]
		if r.Code != response.CodeOK {
			t.Fatalf("code = %q, want %q (errMsg: %s)", r.Code, response.CodeOK, r.ErrMsg)
		}
		if r.NewID == "" {
			t.Fatal("new_id is empty")
		}
		if r.FirstID != r.NewID {
			t.Errorf("first_id = %q, want it to equal new_id %q", r.FirstID, r.NewID)
		}
	})

	t.Run("with first_id it is echoed and new_id differs", func(t *testing.T) {
		f := newSyncFixture()

		results := f.service.Process("user-1", BatchMutate, []domain.Atom{{
			TaskType: domain.TaskThreadPost,
			TaskID:   "t1",
			Thread:   &domain.ThreadPayload{FirstID: "local-abc", Title: strPtr("hello")},
		}})

		r := results[0]
		if r.FirstID != "local-abc" {
			t.Errorf("first_id = %q, want %q", r.FirstID, "local-abc")
		}
		if r.NewID == "" || r.NewID == "local-abc" {
			t.Errorf("new_id = %q, want a fresh server id", r.NewID)
		}
	})

	t.Run("retry with the same first_id returns the same new_id", func(t *testing.T) {
		f := newSyncFixture()

		atom := domain.Atom{
			TaskType: domain.TaskThreadPost,
			TaskID:   "t1",
			Thread:   &domain.ThreadPayload{FirstID: "local-abc", Title: strPtr("hello")},
		}
		first := f.service.Process("user-1", BatchMutate, []domain.Atom{atom})[0]
		second := f.service.Process("user-1", BatchMutate, []domain.Atom{atom})[0]

		if second.Code != response.CodeOK {
			t.Fatalf("retry code = %q, want %q", second.Code, response.CodeOK)
		}
		if second.NewID != first.NewID {
			t.Errorf("retry new_id = %q, want %q", second.NewID, first.NewID)
		}
		if len(f.threadRepo.threads) != 1 {
			t.Errorf("thread count = %d, want 1", len(f.threadRepo.threads))
		}
	})

	t.Run("missing payload is a bad request", func(t *testing.T) {
		f := newSyncFixture()

		r := f.service.Process("user-1", BatchMutate, []domain.Atom{{
			TaskType: domain.TaskThreadPost,
			TaskID:   "t1",
		}})[0]

		if r.Code != response.CodeBadRequest {
			t.Errorf("code = %q, want %q", r.Code, response.CodeBadRequest)
		}
	})
}

func TestSyncService_EditThread(t *testing.T) {
	f := newSyncFixture()

	created := f.service.Process("user-1", BatchMutate, []domain.Atom{{
		TaskType: domain.TaskThreadPost,
		TaskID:   "t1",
		Thread:   &domain.ThreadPayload{Title: strPtr("before")},
	}})[0]

	r := f.service.Process("user-1", BatchMutate, []domain.Atom{{
		TaskType: domain.TaskThreadEdit,
		TaskID:   "t2",
		Thread:   &domain.ThreadPayload{ID: created.NewID, Title: strPtr("after")},
	}})[0]

	if r.Code != response.CodeOK {
		t.Fatalf("code = %q, want %q (errMsg: %s)", r.Code, response.CodeOK, r.ErrMsg)
	}
	thread := f.threadRepo.threads[created.NewID]
	if thread.Title != "after" {
		t.Errorf("title = %q, want %q", thread.Title, "after")
	}
}

func TestSyncService_EditForeignThreadIndistinguishableFromMissing(t *testing.T) {
	f := newSyncFixture()

	created := f.service.Process("user-1", BatchMutate, []domain.Atom{{
		TaskType: domain.TaskThreadPost,
		TaskID:   "t1",
		Thread:   &domain.ThreadPayload{Title: strPtr("mine")},
	}})[0]

	foreign := f.service.Process("user-2", BatchMutate, []domain.Atom{{
		TaskType: domain.TaskThreadEdit,
		TaskID:   "t2",
		Thread:   &domain.ThreadPayload{ID: created.NewID, Title: strPtr("stolen")},
	}})[0]

	missing := f.service.Process("user-2", BatchMutate, []domain.Atom{{
		TaskType: domain.TaskThreadEdit,
		TaskID:   "t3",
		Thread:   &domain.ThreadPayload{ID: "no-such-thread", Title: strPtr("x")},
	}})[0]

	if foreign.Code != response.CodeNotFound {
		t.Errorf("foreign edit code = %q, want %q", foreign.Code, response.CodeNotFound)
	}
	if missing.Code != response.CodeNotFound {
		t.Errorf("missing edit code = %q, want %q", missing.Code, response.CodeNotFound)
	}
	if foreign.ErrMsg != missing.ErrMsg {
		t.Errorf("foreign and missing edits must be indistinguishable: %q vs %q", foreign.ErrMsg, missing.ErrMsg)
	}
	if f.threadRepo.threads[created.NewID].Title != "mine" {
		t.Error("foreign edit must not modify the thread")
	}
}

func TestSyncService_DeleteThreadIsSoft(t *testing.T) {
	f := newSyncFixture()

	created := f.service.Process("user-1", BatchMutate, []domain.Atom{{
		TaskType: domain.TaskThreadPost,
		TaskID:   "t1",
		Thread:   &domain.ThreadPayload{Title: strPtr("doomed")},
	}})[0]

	stamp := time.Now().UnixMilli()
	r := f.service.Process("user-1", BatchMutate, []domain.Atom{{
		TaskType: domain.TaskThreadDelete,
		TaskID:   "t2",
		Thread:   &domain.ThreadPayload{ID: created.NewID, RemovedStamp: &stamp},
	}})[0]

	if r.Code != response.CodeOK {
		t.Fatalf("code = %q, want %q", r.Code, response.CodeOK)
	}

	thread, ok := f.threadRepo.threads[created.NewID]
	if !ok {
		t.Fatal("deleted thread must remain stored")
	}
	if thread.Status != domain.ThreadStatusDeleted {
		t.Errorf("status = %q, want %q", thread.Status, domain.ThreadStatusDeleted)
	}
	if thread.OState != domain.OStateDeleted {
		t.Errorf("o_state = %q, want %q", thread.OState, domain.OStateDeleted)
	}
	if thread.RemovedStamp != stamp {
		t.Errorf("removed_stamp = %d, want %d", thread.RemovedStamp, stamp)
	}
	if thread.Title != "doomed" {
		t.Error("soft delete must preserve content")
	}
}

func TestSyncService_SameBatchFirstIDReference(t *testing.T) {
	f := newSyncFixture()

	results := f.service.Process("user-1", BatchMutate, []domain.Atom{
		{
			TaskType: domain.TaskThreadPost,
			TaskID:   "t1",
			Thread:   &domain.ThreadPayload{FirstID: "local-A", Title: strPtr("parent")},
		},
		{
			TaskType: domain.TaskCommentPost,
			TaskID:   "t2",
			Comment:  &domain.CommentPayload{ThreadID: "local-A", Content: strPtr("child")},
		},
	})

	if results[0].Code != response.CodeOK {
		t.Fatalf("thread-post code = %q (errMsg: %s)", results[0].Code, results[0].ErrMsg)
	}
	if results[1].Code != response.CodeOK {
		t.Fatalf("comment-post code = %q (errMsg: %s)", results[1].Code, results[1].ErrMsg)
	}

	comment := f.commentRepo.comments[results[1].NewID]
	if comment.ThreadID != results[0].NewID {
		t.Errorf("comment thread_id = %q, want resolved server id %q", comment.ThreadID, results[0].NewID)
	}
}

func TestSyncService_SwappedBatchOrderFailsTheReference(t *testing.T) {
	f := newSyncFixture()

	// The comment references a thread the batch has not created yet;
	// sequential processing means it must fail rather than see the future.
	results := f.service.Process("user-1", BatchMutate, []domain.Atom{
		{
			TaskType: domain.TaskCommentPost,
			TaskID:   "t1",
			Comment:  &domain.CommentPayload{ThreadID: "local-A", Content: strPtr("too early")},
		},
		{
			TaskType: domain.TaskThreadPost,
			TaskID:   "t2",
			Thread:   &domain.ThreadPayload{FirstID: "local-A", Title: strPtr("parent")},
		},
	})

	if results[0].Code != response.CodeNotFound {
		t.Errorf("early comment code = %q, want %q", results[0].Code, response.CodeNotFound)
	}
	if results[1].Code != response.CodeOK {
		t.Errorf("thread-post code = %q, want %q", results[1].Code, response.CodeOK)
	}
}

func TestSyncService_OneFailureDoesNotAbortTheBatch(t *testing.T) {
	f := newSyncFixture()

	results := f.service.Process("user-1", BatchMutate, []domain.Atom{
		{
			TaskType: domain.TaskCommentPost,
			TaskID:   "t1",
			Comment:  &domain.CommentPayload{ThreadID: "nope", Content: strPtr("orphan")},
		},
		{
			TaskType: domain.TaskThreadPost,
			TaskID:   "t2",
			Thread:   &domain.ThreadPayload{Title: strPtr("fine")},
		},
	})

	if results[0].Code != response.CodeNotFound {
		t.Errorf("first result code = %q, want %q", results[0].Code, response.CodeNotFound)
	}
	if results[1].Code != response.CodeOK {
		t.Errorf("second result code = %q, want %q", results[1].Code, response.CodeOK)
	}
}

func TestSyncService_UnknownTaskType(t *testing.T) {
	f := newSyncFixture()

	mutate := f.service.Process("user-1", BatchMutate, []domain.Atom{{
		TaskType: "thread-upsert",
		TaskID:   "t1",
	}})[0]
	query := f.service.Process("user-1", BatchQuery, []domain.Atom{{
		TaskType: "thread_search",
		TaskID:   "t2",
	}})[0]

	if mutate.Code != response.CodeInternal {
		t.Errorf("mutate code = %q, want %q", mutate.Code, response.CodeInternal)
	}
	if query.Code != response.CodeInternal {
		t.Errorf("query code = %q, want %q", query.Code, response.CodeInternal)
	}
}

func TestSyncService_CommentLifecycle(t *testing.T) {
	f := newSyncFixture()

	thread := f.service.Process("user-1", BatchMutate, []domain.Atom{{
		TaskType: domain.TaskThreadPost,
		TaskID:   "t1",
		Thread:   &domain.ThreadPayload{Title: strPtr("host")},
	}})[0]

	posted := f.service.Process("user-1", BatchMutate, []domain.Atom{{
		TaskType: domain.TaskCommentPost,
		TaskID:   "t2",
		Comment:  &domain.CommentPayload{ThreadID: thread.NewID, Content: strPtr("v1")},
	}})[0]
	if posted.Code != response.CodeOK {
		t.Fatalf("comment-post code = %q (errMsg: %s)", posted.Code, posted.ErrMsg)
	}

	edited := f.service.Process("user-1", BatchMutate, []domain.Atom{{
		TaskType: domain.TaskCommentEdit,
		TaskID:   "t3",
		Comment:  &domain.CommentPayload{ID: posted.NewID, Content: strPtr("v2")},
	}})[0]
	if edited.Code != response.CodeOK {
		t.Fatalf("comment-edit code = %q", edited.Code)
	}
	if f.commentRepo.comments[posted.NewID].Content != "v2" {
		t.Error("comment edit did not apply")
	}

	deleted := f.service.Process("user-1", BatchMutate, []domain.Atom{{
		TaskType: domain.TaskCommentDelete,
		TaskID:   "t4",
		Comment:  &domain.CommentPayload{ID: posted.NewID},
	}})[0]
	if deleted.Code != response.CodeOK {
		t.Fatalf("comment-delete code = %q", deleted.Code)
	}

	comment, ok := f.commentRepo.comments[posted.NewID]
	if !ok {
		t.Fatal("deleted comment must remain stored")
	}
	if comment.Status != domain.CommentStatusDeleted {
		t.Errorf("status = %q, want %q", comment.Status, domain.CommentStatusDeleted)
	}
	if comment.RemovedStamp == 0 {
		t.Error("removed_stamp not set")
	}
}

func TestSyncService_ThreadListViews(t *testing.T) {
	f := newSyncFixture()

	active := f.service.Process("user-1", BatchMutate, []domain.Atom{{
		TaskType: domain.TaskThreadPost,
		TaskID:   "t1",
		Thread:   &domain.ThreadPayload{Title: strPtr("alive")},
	}})[0]
	dead := f.service.Process("user-1", BatchMutate, []domain.Atom{{
		TaskType: domain.TaskThreadPost,
		TaskID:   "t2",
		Thread:   &domain.ThreadPayload{Title: strPtr("gone")},
	}})[0]
	f.service.Process("user-1", BatchMutate, []domain.Atom{{
		TaskType: domain.TaskThreadDelete,
		TaskID:   "t3",
		Thread:   &domain.ThreadPayload{ID: dead.NewID},
	}})

	listParcels := func(viewType string) []domain.ThreadParcel {
		r := f.service.Process("user-1", BatchQuery, []domain.Atom{{
			TaskType: domain.TaskThreadList,
			TaskID:   "q",
			ViewType: viewType,
		}})[0]
		if r.Code != response.CodeOK {
			t.Fatalf("thread_list(%s) code = %q", viewType, r.Code)
		}
		parcels, ok := r.List.([]domain.ThreadParcel)
		if !ok {
			t.Fatalf("thread_list(%s) list has type %T", viewType, r.List)
		}
		return parcels
	}

	activeParcels := listParcels("")
	if len(activeParcels) != 1 || activeParcels[0].Content.ID != active.NewID {
		t.Errorf("active view returned %d parcels, want only the live thread", len(activeParcels))
	}

	trash := listParcels("trash")
	if len(trash) != 1 || trash[0].Content.ID != dead.NewID {
		t.Errorf("trash view returned %d parcels, want only the deleted thread", len(trash))
	}
	if trash[0].Content.OState != domain.OStateDeleted {
		t.Errorf("trash parcel oState = %q, want %q", trash[0].Content.OState, domain.OStateDeleted)
	}
}

func TestSyncService_ThreadListParcelShape(t *testing.T) {
	f := newSyncFixture()

	created := f.service.Process("user-1", BatchMutate, []domain.Atom{{
		TaskType: domain.TaskThreadPost,
		TaskID:   "t1",
		Thread: &domain.ThreadPayload{
			FirstID:     "local-A",
			Title:       strPtr("parcel me"),
			Description: strPtr("searchable"),
		},
	}})[0]

	r := f.service.Process("user-1", BatchQuery, []domain.Atom{{
		TaskType: domain.TaskThreadList,
		TaskID:   "q1",
	}})[0]

	parcels := r.List.([]domain.ThreadParcel)
	if len(parcels) != 1 {
		t.Fatalf("got %d parcels, want 1", len(parcels))
	}

	p := parcels[0]
	if p.Status != "has_data" || p.ParcelType != "content" {
		t.Errorf("wrapper = (%q, %q), want (has_data, content)", p.Status, p.ParcelType)
	}
	c := p.Content
	if c.ID != created.NewID || c.FirstID != "local-A" {
		t.Errorf("ids = (%q, %q), want (%q, local-A)", c.ID, c.FirstID, created.NewID)
	}
	if !c.IsMine || c.Author.UserID != "user-1" {
		t.Error("parcel must mark ownership for the requesting user")
	}
	if c.InfoType != "THREAD" || c.SpaceType != "ME" || c.VisScope != "PUBLIC" || c.StorageState != "CLOUD" {
		t.Errorf("constant fields wrong: %q %q %q %q", c.InfoType, c.SpaceType, c.VisScope, c.StorageState)
	}
	if c.SearchTitle != "parcel me" || c.SearchOther != "searchable" {
		t.Errorf("search fields = (%q, %q)", c.SearchTitle, c.SearchOther)
	}
	if c.CreatedStamp == 0 || c.EditedStamp == 0 {
		t.Error("stamps must fall back to row timestamps")
	}
}

func TestSyncService_ThreadData(t *testing.T) {
	f := newSyncFixture()

	created := f.service.Process("user-1", BatchMutate, []domain.Atom{{
		TaskType: domain.TaskThreadPost,
		TaskID:   "t1",
		Thread:   &domain.ThreadPayload{Title: strPtr("detail")},
	}})[0]

	for v := 1; v <= 3; v++ {
		f.contentRepo.Create(&domain.Content{
			ID:       fmt.Sprintf("content-%d", v),
			ThreadID: created.NewID,
			UserID:   "user-1",
			Version:  int64(v),
		})
	}

	r := f.service.Process("user-1", BatchQuery, []domain.Atom{{
		TaskType: domain.TaskThreadData,
		TaskID:   "q1",
		ThreadID: created.NewID,
	}})[0]

	if r.Code != response.CodeOK {
		t.Fatalf("code = %q (errMsg: %s)", r.Code, r.ErrMsg)
	}
	if r.Thread == nil || r.Thread.ID != created.NewID {
		t.Fatal("thread_data must return the thread")
	}
	if len(r.Contents) != 3 {
		t.Fatalf("got %d contents, want 3", len(r.Contents))
	}
	if r.Contents[0].Version != 3 {
		t.Errorf("contents not newest-version first: got version %d", r.Contents[0].Version)
	}

	missing := f.service.Process("user-1", BatchQuery, []domain.Atom{{
		TaskType: domain.TaskThreadData,
		TaskID:   "q2",
		ThreadID: "no-such",
	}})[0]
	if missing.Code != response.CodeNotFound {
		t.Errorf("missing thread code = %q, want %q", missing.Code, response.CodeNotFound)
	}
}

func TestSyncService_QueryRequiresThreadID(t *testing.T) {
	f := newSyncFixture()

	for _, taskType := range []domain.TaskType{domain.TaskContentList, domain.TaskThreadData, domain.TaskCommentList} {
		r := f.service.Process("user-1", BatchQuery, []domain.Atom{{
			TaskType: taskType,
			TaskID:   "q",
		}})[0]
		if r.Code != response.CodeBadRequest {
			t.Errorf("%s without threadId code = %q, want %q", taskType, r.Code, response.CodeBadRequest)
		}
	}
}

func TestSyncService_MutationsNotify(t *testing.T) {
	f := newSyncFixture()

	created := f.service.Process("user-1", BatchMutate, []domain.Atom{{
		TaskType: domain.TaskThreadPost,
		TaskID:   "t1",
		Thread:   &domain.ThreadPayload{Title: strPtr("watched")},
	}})[0]

	if len(f.notifier.events) != 1 {
		t.Fatalf("got %d notifications, want 1", len(f.notifier.events))
	}
	ev := f.notifier.events[0]
	if ev.UserID != "user-1" || ev.InfoType != "THREAD" || ev.ID != created.NewID || ev.Operation != "post" {
		t.Errorf("unexpected notification: %+v", ev)
	}

	f.service.Process("user-1", BatchQuery, []domain.Atom{{
		TaskType: domain.TaskThreadList,
		TaskID:   "q1",
	}})
	if len(f.notifier.events) != 1 {
		t.Error("queries must not notify")
	}
}
