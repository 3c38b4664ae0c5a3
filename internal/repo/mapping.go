package repo

// ProfileRecord is the repo-local profile model: the user's identity fields
// plus the application's medical attributes, under application field names.
type ProfileRecord struct {
	ID                    string
	Email                 string
	FirstName             string
	LastName              string
	Phone                 string
	Gender                string
	DateOfBirth           string
	BloodType             string
	Allergies             string
	ChronicConditions     string
	HeightCm              float64
	WeightKg              float64
	EmergencyContactName  string
	EmergencyContactPhone string
	InsuranceProvider     string
	InsuranceNumber       string
	MedicalNotes          string
	AvatarURL             string
}

// ProfileUpdate carries a partial profile edit. Nil fields are left
// untouched server-side.
type ProfileUpdate struct {
	FirstName             *string
	LastName              *string
	Phone                 *string
	Gender                *string
	DateOfBirth           *string
	BloodType             *string
	Allergies             *string
	ChronicConditions     *string
	HeightCm              *float64
	WeightKg              *float64
	EmergencyContactName  *string
	EmergencyContactPhone *string
	InsuranceProvider     *string
	InsuranceNumber       *string
	MedicalNotes          *string
	AvatarURL             *string
}

// The provider stores profiles under snake_case column names. This file is
// the only place the translation lives; both directions must cover every
// writable field so a read-back written straight back is a no-op.

func rowString(row map[string]any, key string) string {
	v, _ := row[key].(string)
	return v
}

func rowFloat(row map[string]any, key string) float64 {
	switch v := row[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case int64:
		return float64(v)
	}
	return 0
}

func profileFromRow(row map[string]any) ProfileRecord {
	return ProfileRecord{
		ID:                    rowString(row, "id"),
		Email:                 rowString(row, "email"),
		FirstName:             rowString(row, "first_name"),
		LastName:              rowString(row, "last_name"),
		Phone:                 rowString(row, "phone"),
		Gender:                rowString(row, "gender"),
		DateOfBirth:           rowString(row, "date_of_birth"),
		BloodType:             rowString(row, "blood_type"),
		Allergies:             rowString(row, "allergies"),
		ChronicConditions:     rowString(row, "chronic_conditions"),
		HeightCm:              rowFloat(row, "height_cm"),
		WeightKg:              rowFloat(row, "weight_kg"),
		EmergencyContactName:  rowString(row, "emergency_contact_name"),
		EmergencyContactPhone: rowString(row, "emergency_contact_phone"),
		InsuranceProvider:     rowString(row, "insurance_provider"),
		InsuranceNumber:       rowString(row, "insurance_number"),
		MedicalNotes:          rowString(row, "medical_notes"),
		AvatarURL:             rowString(row, "avatar_url"),
	}
}

func rowFromUpdate(upd ProfileUpdate) map[string]any {
	row := map[string]any{}
	setS := func(key string, v *string) {
		if v != nil {
			row[key] = *v
		}
	}
	setF := func(key string, v *float64) {
		if v != nil {
			row[key] = *v
		}
	}

	setS("first_name", upd.FirstName)
	setS("last_name", upd.LastName)
	setS("phone", upd.Phone)
	setS("gender", upd.Gender)
	setS("date_of_birth", upd.DateOfBirth)
	setS("blood_type", upd.BloodType)
	setS("allergies", upd.Allergies)
	setS("chronic_conditions", upd.ChronicConditions)
	setF("height_cm", upd.HeightCm)
	setF("weight_kg", upd.WeightKg)
	setS("emergency_contact_name", upd.EmergencyContactName)
	setS("emergency_contact_phone", upd.EmergencyContactPhone)
	setS("insurance_provider", upd.InsuranceProvider)
	setS("insurance_number", upd.InsuranceNumber)
	setS("medical_notes", upd.MedicalNotes)
	setS("avatar_url", upd.AvatarURL)
	return row
}

// UpdateFromRecord converts a full profile read-back into an update touching
// every writable field. Writing back what was just read converges: the
// resulting row equals the source row.
func UpdateFromRecord(rec ProfileRecord) ProfileUpdate {
	return ProfileUpdate{
		FirstName:             &rec.FirstName,
		LastName:              &rec.LastName,
		Phone:                 &rec.Phone,
		Gender:                &rec.Gender,
		DateOfBirth:           &rec.DateOfBirth,
		BloodType:             &rec.BloodType,
		Allergies:             &rec.Allergies,
		ChronicConditions:     &rec.ChronicConditions,
		HeightCm:              &rec.HeightCm,
		WeightKg:              &rec.WeightKg,
		EmergencyContactName:  &rec.EmergencyContactName,
		EmergencyContactPhone: &rec.EmergencyContactPhone,
		InsuranceProvider:     &rec.InsuranceProvider,
		InsuranceNumber:       &rec.InsuranceNumber,
		MedicalNotes:          &rec.MedicalNotes,
		AvatarURL:             &rec.AvatarURL,
	}
}
