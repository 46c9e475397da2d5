package tutor

// Models lists every persisted entity in migration order.
func Models() []any {
	return []any{
		&Activity{},
		&Item{},
		&InfoImage{},
		&InfoVideo{},
		&Thread{},
		&Message{},
		&ViewPiece{},
		&ViewPieceText{},
		&ViewPieceImage{},
		&ViewPieceVideo{},
		&Completion{},
		&Flag{},
	}
}
