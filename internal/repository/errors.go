package repository

import "errors"

var ErrNotFound = errors.New("not found")

// 条件付きUPDATEで在庫が0未満になるため適用されなかった
var ErrInsufficientStock = errors.New("insufficient stock")

// 一意制約違反（SKU重複など）
var ErrDuplicate = errors.New("duplicate")
