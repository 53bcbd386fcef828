package domain

import "time"

// ReminderPush содержит сработавшее напоминание для доставки пользователю.
type ReminderPush struct {
	UserID       int64        `json:"user_id"`
	Notification Notification `json:"notification"`
	FiredAt      time.Time    `json:"fired_at"`
}

// TranscriptJob описывает задачу расшифровки аудиозаписи приёма.
type TranscriptJob struct {
	ID        string `json:"job_id"`
	PatientID int64  `json:"patient_id"`
	DoctorID  int64  `json:"doctor_id"`
	FileName  string `json:"file_name"`
	FilePath  string `json:"file_path"`
}
