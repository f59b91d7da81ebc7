package payments

// BankAccount is one destination account shown to manual-transfer buyers.
type BankAccount struct {
	BankName      string `json:"bank_name"`
	AccountNumber string `json:"account_number"`
	AccountHolder string `json:"account_holder"`
}

var bankAccounts = []BankAccount{
	{BankName: "BCA", AccountNumber: "1234567890", AccountHolder: "PT Cadoobag Indonesia"},
	{BankName: "Mandiri", AccountNumber: "9876543210", AccountHolder: "PT Cadoobag Indonesia"},
	{BankName: "BNI", AccountNumber: "5556667778", AccountHolder: "PT Cadoobag Indonesia"},
}

// Banks lists the accounts buyers can wire manual transfers to.
func Banks() []BankAccount {
	out := make([]BankAccount, len(bankAccounts))
	copy(out, bankAccounts)
	return out
}
