package task

import "fmt"

// Table selects one of the two task tables. The set is closed: the only
// values are TableLive and TableTest, and table names never come from input.
type Table int

const (
	// TableLive holds the user's tasks. It is created at startup and never dropped.
	TableLive Table = iota
	// TableTest is the scratch table the automated scenarios create and drop.
	TableTest
)

func (t Table) String() string {
	if st, ok := tableStatements[t]; ok {
		return st.name
	}
	return fmt.Sprintf("Table(%d)", int(t))
}

// statements is the SQL bound to one table.
type statements struct {
	name         string
	createTable  string
	dropTable    string
	insert       string
	list         string
	updateStatus string
	delete       string
}

var tableStatements = map[Table]statements{
	TableLive: newStatements("tasks"),
	TableTest: newStatements("tasks_test"),
}

// newStatements is only ever called with the literal names above.
func newStatements(name string) statements {
	return statements{
		name: name,
		createTable: `CREATE TABLE IF NOT EXISTS ` + name + ` (
        id INT AUTO_INCREMENT PRIMARY KEY,
        name VARCHAR(300) NOT NULL,
        description VARCHAR(300) NOT NULL,
        status ENUM('NotStarted', 'InProgress', 'Done') NOT NULL DEFAULT 'NotStarted',
        createdAt DATETIME DEFAULT CURRENT_TIMESTAMP
)`,
		dropTable:    `DROP TABLE IF EXISTS ` + name,
		insert:       `INSERT INTO ` + name + ` (name, description) VALUES (?, ?)`,
		list:         `SELECT id, name, description, status, createdAt FROM ` + name + ` ORDER BY id`,
		updateStatus: `UPDATE ` + name + ` SET status = ? WHERE id = ?`,
		delete:       `DELETE FROM ` + name + ` WHERE id = ?`,
	}
}

func statementsFor(t Table) (statements, error) {
	st, ok := tableStatements[t]
	if !ok {
		return statements{}, fmt.Errorf("unknown task table %d", int(t))
	}
	return st, nil
}
