package models

// Settings — единственная строка настроек модуля (id всегда равен 1).
type Settings struct {
	ID                    int  // Всегда 1
	CategoryID            int  // Категория подписных товаров
	DeleteDataOnUninstall bool // Удалять ли данные при деинсталляции
}

// SettingsID — фиксированный ключ строки настроек.
const SettingsID = 1
