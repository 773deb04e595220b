package testutil

// ItemFields returns a 22-column item_db row with the given id, names and type.
// Remaining columns are empty so loader defaults apply.
func ItemFields(id, codeName, displayName, itemType string) []string {
	f := make([]string, 22)
	f[0] = id
	f[1] = codeName
	f[2] = displayName
	f[3] = itemType
	f[6] = "1"
	return f
}
