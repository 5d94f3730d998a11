package editor

import "github.com/vnkhanh/scl-academy-backend/models"

// Outcome là kết quả có kiểu của một yêu cầu AI, áp vào phiên qua Session.Apply.
// Block: thêm khối vào Target. Patch: sửa khối PatchID tại chỗ. Failed: lý do thất bại (status).
type Outcome struct {
	Target  ModuleRef
	Block   *models.ContentBlock
	PatchID string
	Patch   *BlockPatch
	Status  string
	Failed  string
}

func Appended(target ModuleRef, b models.ContentBlock, status string) Outcome {
	return Outcome{Target: target, Block: &b, Status: status}
}

func Patched(blockID string, p BlockPatch, status string) Outcome {
	return Outcome{PatchID: blockID, Patch: &p, Status: status}
}

func Failed(reason string) Outcome {
	return Outcome{Failed: reason}
}

// FailedWith vừa sửa khối vừa báo lỗi (video lỗi, refine xong)
func (o Outcome) FailedWith(reason string) Outcome {
	o.Failed = reason
	return o
}

// Result là phản hồi cho caller của một thao tác sinh nội dung
type Result struct {
	OK      bool   `json:"ok"`
	BlockID string `json:"block_id,omitempty"`
	Status  string `json:"status"`
}
