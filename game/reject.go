package game

import "fmt"

// RejectionType 玩家可见的拒绝原因, 仅回发给出错的玩家本人
type RejectionType string

const (
	RejectJoinAlreadyJoined        RejectionType = "FAILED_JOIN_ALREADY_JOINED_PLAYER"
	RejectJoinExceedMaxPlayers     RejectionType = "FAILED_JOIN_EXCEED_MAX_NUMBER_OF_PLAYERS"
	RejectLeavePlayerNotExists     RejectionType = "FAILED_LEAVE_SPECIFIED_PLAYER_NOT_EXISTS"
	RejectStartInsufficientPlayers RejectionType = "FAILED_START_INSUFFICIENT_PLAYERS"
	RejectStartGameNotDealer       RejectionType = "FAILED_START_GAME_NOT_DEALER"
	RejectPlayerNotExists          RejectionType = "SPECIFIED_PLAYER_ID_DOES_NOT_EXISTS"
	RejectInvalidBidValue          RejectionType = "DECLARED_INVALID_BID_VALUE"
	RejectRoundAlreadyEnded        RejectionType = "ROUND_HAS_ALREADY_ENDED"
	RejectIsNotNextPlayer          RejectionType = "IS_NOT_NEXT_PLAYER"
	RejectHasNotCard               RejectionType = "HAS_NOT_CARD"
	RejectCantPutCardOnField       RejectionType = "CANT_PUT_CARD_ON_FIELD"
	RejectIllegalPlayerAction      RejectionType = "ILLEGAL_PLAYER_ACTION_DETECTED"
	RejectReturnCardSizeInvalid    RejectionType = "RETURN_CARD_SIZE_INVALID"
	RejectReturnCardPlayerNotHas   RejectionType = "RETURN_CARD_PLAYER_NOT_HAS"
	RejectInvalidChangeBidValue    RejectionType = "INVALID_CHANGE_BID_VALUE"
)

// Rejection 被拒绝的输入。不是 error: 房间状态不变, 也不落盘。
type Rejection struct {
	PlayerID string
	Type     RejectionType
}

func reject(playerID string, t RejectionType) *Rejection {
	return &Rejection{PlayerID: playerID, Type: t}
}

// InvalidStateError 不变量被破坏时的致命错误, 交由监督者重启房间
type InvalidStateError string

func (e InvalidStateError) Error() string {
	return fmt.Sprintf("invalid game state: %s", string(e))
}

func invalidStatef(format string, args ...any) InvalidStateError {
	return InvalidStateError(fmt.Sprintf(format, args...))
}
