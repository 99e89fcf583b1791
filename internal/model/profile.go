package model

import (
	"encoding/json"
	"time"
)

// StudentProfile is the free-form profile distilled from a resume and
// personal statement. Only the list fields are normalized.
type StudentProfile struct {
	Education   FlexString  `json:"education"`
	Experiences FlexStrings `json:"experiences"`
	Projects    FlexStrings `json:"projects"`
	Skills      FlexStrings `json:"skills"`
	Interests   FlexStrings `json:"interests"`
	CareerGoal  FlexString  `json:"career_goal"`
	Strengths   FlexStrings `json:"strengths"`
	Weaknesses  FlexStrings `json:"weaknesses"`
}

// FallbackProfile is stored when the model reply cannot be decoded.
func FallbackProfile() StudentProfile {
	return StudentProfile{
		Education:   "분석 중",
		Experiences: FlexStrings{"이력서 내용 참조"},
		Projects:    FlexStrings{},
		Skills:      FlexStrings{"분석 실패"},
		Interests:   FlexStrings{"반도체 공정"},
		CareerGoal:  "분석 중",
		Strengths:   FlexStrings{},
		Weaknesses:  FlexStrings{},
	}
}

// Normalize replaces nil lists with empty ones.
func (p *StudentProfile) Normalize() {
	for _, l := range []*FlexStrings{&p.Experiences, &p.Projects, &p.Skills, &p.Interests, &p.Strengths, &p.Weaknesses} {
		if *l == nil {
			*l = FlexStrings{}
		}
	}
}

// StudentProfileRecord persists the latest analyzed profile per user.
type StudentProfileRecord struct {
	ID        uint            `gorm:"primaryKey" json:"id"`
	UserID    uint            `gorm:"not null;uniqueIndex" json:"user_id"`
	Profile   json.RawMessage `gorm:"type:json;not null" json:"profile"`
	Partial   bool            `gorm:"not null;default:false" json:"partial"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}
