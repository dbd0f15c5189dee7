package operation

import "fintrack/internal/api/v1/dto"

type ListTransactionsInput struct {
	From       string `query:"from" doc:"Earliest date, YYYY-MM-DD or RFC 3339"`
	To         string `query:"to" doc:"Latest date, YYYY-MM-DD or RFC 3339"`
	Type       string `query:"type" enum:"INCOME,EXPENSE" doc:"Only this kind"`
	CategoryID string `query:"category_id" format:"uuid" doc:"Only this category"`
	Limit      int    `query:"limit" default:"100" minimum:"1" maximum:"500" doc:"Number of transactions to return"`
	Offset     int    `query:"offset" default:"0" minimum:"0" doc:"Offset for pagination"`
}

type ListTransactionsOutput struct {
	Body []dto.TransactionResponseDTO `json:"body"`
}

type GetTransactionInput struct {
	TransactionID string `path:"transactionId" format:"uuid" doc:"Transaction ID"`
}

type GetTransactionOutput struct {
	Body dto.TransactionResponseDTO `json:"body"`
}

type CreateTransactionInput struct {
	Body dto.TransactionDTO `json:"body"`
}

type CreateTransactionOutput struct {
	Body dto.TransactionResponseDTO `json:"body"`
}

type UpdateTransactionInput struct {
	TransactionID string             `path:"transactionId" format:"uuid" doc:"Transaction ID"`
	Body          dto.TransactionDTO `json:"body"`
}

type UpdateTransactionOutput struct {
	Body dto.TransactionResponseDTO `json:"body"`
}

type DeleteTransactionInput struct {
	TransactionID string `path:"transactionId" format:"uuid" doc:"Transaction ID"`
}

type DeleteTransactionOutput struct {
	// 204 No Content
}
