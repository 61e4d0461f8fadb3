package domain

// TaskType identifies the operation a single sync atom requests. Mutation
// kinds use dashes, query kinds underscores; both sets are closed.
type TaskType string

const (
	TaskThreadPost    TaskType = "thread-post"
	TaskThreadEdit    TaskType = "thread-edit"
	TaskThreadDelete  TaskType = "thread-delete"
	TaskCommentPost   TaskType = "comment-post"
	TaskCommentEdit   TaskType = "comment-edit"
	TaskCommentDelete TaskType = "comment-delete"

	TaskThreadList  TaskType = "thread_list"
	TaskContentList TaskType = "content_list"
	TaskThreadData  TaskType = "thread_data"
	TaskCommentList TaskType = "comment_list"
)

// Atom is one client-requested operation within a sync batch. TaskID is a
// client-generated correlation id, unique within the batch.
type Atom struct {
	TaskType     TaskType `json:"taskType"`
	TaskID       string   `json:"taskId"`
	OperateStamp int64    `json:"operateStamp,omitempty"`

	// mutation payloads
	Thread  *ThreadPayload  `json:"thread,omitempty"`
	Comment *CommentPayload `json:"comment,omitempty"`

	// query parameters
	ThreadID string `json:"threadId,omitempty"`
	ViewType string `json:"viewType,omitempty"`
	SpaceID  string `json:"spaceId,omitempty"`
	Limit    int    `json:"limit,omitempty"`
	Skip     int    `json:"skip,omitempty"`
}

// AtomResult is the per-atom outcome. Exactly one is produced per input atom,
// in input order, correlated by TaskID.
type AtomResult struct {
	TaskID   string      `json:"taskId"`
	Code     string      `json:"code"`
	ErrMsg   string      `json:"errMsg,omitempty"`
	FirstID  string      `json:"first_id,omitempty"`
	NewID    string      `json:"new_id,omitempty"`
	List     interface{} `json:"list,omitempty"`
	Thread   *Thread     `json:"thread,omitempty"`
	Contents []*Content  `json:"contents,omitempty"`
}

// EncryptedEnvelope wraps a batch of atoms encrypted with the client's
// session key.
type EncryptedEnvelope struct {
	CipherText string `json:"cipherText"`
	IV         string `json:"iv"`
}

// PlainEnvelope is the decrypted payload. Pre carries the first five
// characters of the session key as an application-layer integrity check on
// top of the GCM tag.
type PlainEnvelope struct {
	Pre  string `json:"pre"`
	Data []Atom `json:"data"`
}

type SyncRequest struct {
	OperateType string             `json:"operateType,omitempty"`
	Atoms       []Atom             `json:"atoms,omitempty"`
	PlzEncAtoms []Atom             `json:"plz_enc_atoms,omitempty"`
	LiuEncAtoms *EncryptedEnvelope `json:"liu_enc_atoms,omitempty"`
}

type SyncResponse struct {
	Results []AtomResult `json:"results"`
}
